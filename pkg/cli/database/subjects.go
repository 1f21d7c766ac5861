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

// Upsert writes the subject, overwriting every column on conflict
func (s Subject) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO subjects (id, institution_id, class_section_id, parent_subject_id, adviser_id, title, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			institution_id = excluded.institution_id,
			class_section_id = excluded.class_section_id,
			parent_subject_id = excluded.parent_subject_id,
			adviser_id = excluded.adviser_id,
			title = excluded.title,
			start_time = excluded.start_time,
			end_time = excluded.end_time`,
		s.ID, s.InstitutionID, s.ClassSectionID, s.ParentSubjectID, s.AdviserID, s.Title, s.StartTime, s.EndTime)
	if err != nil {
		return errors.Wrapf(err, "upserting subject %s", s.ID)
	}

	return nil
}

// GetSubject finds a subject by id
func GetSubject(db *DB, id string) (Subject, error) {
	var ret Subject

	err := db.QueryRow("SELECT id, institution_id, class_section_id, parent_subject_id, adviser_id, title, start_time, end_time FROM subjects WHERE id = ?", id).
		Scan(&ret.ID, &ret.InstitutionID, &ret.ClassSectionID, &ret.ParentSubjectID, &ret.AdviserID, &ret.Title, &ret.StartTime, &ret.EndTime)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding subject %s", id)
	}

	return ret, nil
}

// GetSubjectsByClassSection returns the subjects taught in a class section
func GetSubjectsByClassSection(db *DB, classSectionID string) ([]Subject, error) {
	rows, err := db.Query("SELECT id, institution_id, class_section_id, parent_subject_id, adviser_id, title, start_time, end_time FROM subjects WHERE class_section_id = ? ORDER BY title", classSectionID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying subjects of class section %s", classSectionID)
	}
	defer rows.Close()

	var ret []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.InstitutionID, &s.ClassSectionID, &s.ParentSubjectID, &s.AdviserID, &s.Title, &s.StartTime, &s.EndTime); err != nil {
			return nil, errors.Wrap(err, "scanning a subject")
		}

		ret = append(ret, s)
	}

	return ret, rows.Err()
}

// SubjectExists checks if a subject with the given id is cached locally
func SubjectExists(db *DB, id string) (bool, error) {
	return exists(db, "SELECT count(*) FROM subjects WHERE id = ?", id)
}

// ClearSubjects deletes all cached subjects. Used only by explicit cache reset.
func ClearSubjects(db *DB) error {
	if _, err := db.Exec("DELETE FROM subjects"); err != nil {
		return errors.Wrap(err, "clearing subjects")
	}

	return nil
}
