/* Copyright 2025 Scholastic Cloud Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"database/sql"

	"github.com/pkg/errors"
)

// Upsert writes the ECR component, overwriting every column on conflict
func (e SubjectEcr) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO subject_ecrs (id, subject_id, title, percentage, quarter)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject_id = excluded.subject_id,
			title = excluded.title,
			percentage = excluded.percentage,
			quarter = excluded.quarter`,
		e.ID, e.SubjectID, e.Title, e.Percentage, e.Quarter)
	if err != nil {
		return errors.Wrapf(err, "upserting subject ecr %s", e.ID)
	}

	return nil
}

// GetSubjectEcrsBySubject returns the ECR components of a subject
func GetSubjectEcrsBySubject(db *DB, subjectID string) ([]SubjectEcr, error) {
	rows, err := db.Query("SELECT id, subject_id, title, percentage, quarter FROM subject_ecrs WHERE subject_id = ? ORDER BY quarter, title", subjectID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying ecrs of subject %s", subjectID)
	}
	defer rows.Close()

	var ret []SubjectEcr
	for rows.Next() {
		var e SubjectEcr
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.Title, &e.Percentage, &e.Quarter); err != nil {
			return nil, errors.Wrap(err, "scanning a subject ecr")
		}

		ret = append(ret, e)
	}

	return ret, rows.Err()
}

// SubjectEcrExists checks if an ECR component with the given id is cached locally
func SubjectEcrExists(db *DB, id string) (bool, error) {
	return exists(db, "SELECT count(*) FROM subject_ecrs WHERE id = ?", id)
}

// ClearSubjectEcrs deletes all cached ECR components. Used only by explicit
// cache reset.
func ClearSubjectEcrs(db *DB) error {
	if _, err := db.Exec("DELETE FROM subject_ecrs"); err != nil {
		return errors.Wrap(err, "clearing subject ecrs")
	}

	return nil
}

// Upsert writes the ECR item, overwriting every column on conflict
func (i SubjectEcrItem) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO subject_ecr_items (id, subject_ecr_id, title, total_items, quarter)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject_ecr_id = excluded.subject_ecr_id,
			title = excluded.title,
			total_items = excluded.total_items,
			quarter = excluded.quarter`,
		i.ID, i.SubjectEcrID, i.Title, i.TotalItems, i.Quarter)
	if err != nil {
		return errors.Wrapf(err, "upserting subject ecr item %s", i.ID)
	}

	return nil
}

// GetSubjectEcrItemsByEcr returns the items under an ECR component
func GetSubjectEcrItemsByEcr(db *DB, subjectEcrID string) ([]SubjectEcrItem, error) {
	rows, err := db.Query("SELECT id, subject_ecr_id, title, total_items, quarter FROM subject_ecr_items WHERE subject_ecr_id = ? ORDER BY title", subjectEcrID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying items of ecr %s", subjectEcrID)
	}
	defer rows.Close()

	var ret []SubjectEcrItem
	for rows.Next() {
		var i SubjectEcrItem
		if err := rows.Scan(&i.ID, &i.SubjectEcrID, &i.Title, &i.TotalItems, &i.Quarter); err != nil {
			return nil, errors.Wrap(err, "scanning a subject ecr item")
		}

		ret = append(ret, i)
	}

	return ret, rows.Err()
}

// SubjectEcrItemExists checks if an ECR item with the given id is cached locally
func SubjectEcrItemExists(db *DB, id string) (bool, error) {
	return exists(db, "SELECT count(*) FROM subject_ecr_items WHERE id = ?", id)
}

// ClearSubjectEcrItems deletes all cached ECR items. Used only by explicit
// cache reset.
func ClearSubjectEcrItems(db *DB) error {
	if _, err := db.Exec("DELETE FROM subject_ecr_items"); err != nil {
		return errors.Wrap(err, "clearing subject ecr items")
	}

	return nil
}

// Upsert writes the score. The upsert is keyed both by id and by the
// composite (student, item) so a re-downloaded score updates rather than
// duplicates.
func (s StudentEcrItemScore) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO student_ecr_item_scores (id, student_id, subject_ecr_item_id, score)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			student_id = excluded.student_id,
			subject_ecr_item_id = excluded.subject_ecr_item_id,
			score = excluded.score
		ON CONFLICT(student_id, subject_ecr_item_id) DO UPDATE SET
			id = excluded.id,
			score = excluded.score`,
		s.ID, s.StudentID, s.SubjectEcrItemID, s.Score)
	if err != nil {
		return errors.Wrapf(err, "upserting score %s", s.ID)
	}

	return nil
}

// GetScoresByEcrItem returns the scores recorded for an ECR item
func GetScoresByEcrItem(db *DB, subjectEcrItemID string) ([]StudentEcrItemScore, error) {
	rows, err := db.Query("SELECT id, student_id, subject_ecr_item_id, score FROM student_ecr_item_scores WHERE subject_ecr_item_id = ?", subjectEcrItemID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying scores of ecr item %s", subjectEcrItemID)
	}
	defer rows.Close()

	var ret []StudentEcrItemScore
	for rows.Next() {
		var s StudentEcrItemScore
		if err := rows.Scan(&s.ID, &s.StudentID, &s.SubjectEcrItemID, &s.Score); err != nil {
			return nil, errors.Wrap(err, "scanning a score")
		}

		ret = append(ret, s)
	}

	return ret, rows.Err()
}

// GetScoreByStudentAndItem finds a score by its composite key
func GetScoreByStudentAndItem(db *DB, studentID, subjectEcrItemID string) (StudentEcrItemScore, error) {
	var ret StudentEcrItemScore

	err := db.QueryRow("SELECT id, student_id, subject_ecr_item_id, score FROM student_ecr_item_scores WHERE student_id = ? AND subject_ecr_item_id = ?", studentID, subjectEcrItemID).
		Scan(&ret.ID, &ret.StudentID, &ret.SubjectEcrItemID, &ret.Score)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding score for student %s item %s", studentID, subjectEcrItemID)
	}

	return ret, nil
}

// ClearStudentEcrItemScores deletes all cached scores. Used only by explicit
// cache reset.
func ClearStudentEcrItemScores(db *DB) error {
	if _, err := db.Exec("DELETE FROM student_ecr_item_scores"); err != nil {
		return errors.Wrap(err, "clearing scores")
	}

	return nil
}
