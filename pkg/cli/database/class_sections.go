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

// Upsert writes the class section, overwriting every column on conflict
func (s ClassSection) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO class_sections (id, institution_id, adviser_id, title, grade_level, academic_year)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			institution_id = excluded.institution_id,
			adviser_id = excluded.adviser_id,
			title = excluded.title,
			grade_level = excluded.grade_level,
			academic_year = excluded.academic_year`,
		s.ID, s.InstitutionID, s.AdviserID, s.Title, s.GradeLevel, s.AcademicYear)
	if err != nil {
		return errors.Wrapf(err, "upserting class section %s", s.ID)
	}

	return nil
}

// GetClassSection finds a class section by id
func GetClassSection(db *DB, id string) (ClassSection, error) {
	var ret ClassSection

	err := db.QueryRow("SELECT id, institution_id, adviser_id, title, grade_level, academic_year FROM class_sections WHERE id = ?", id).
		Scan(&ret.ID, &ret.InstitutionID, &ret.AdviserID, &ret.Title, &ret.GradeLevel, &ret.AcademicYear)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding class section %s", id)
	}

	return ret, nil
}

func scanClassSections(rows *sql.Rows) ([]ClassSection, error) {
	defer rows.Close()

	var ret []ClassSection
	for rows.Next() {
		var s ClassSection
		if err := rows.Scan(&s.ID, &s.InstitutionID, &s.AdviserID, &s.Title, &s.GradeLevel, &s.AcademicYear); err != nil {
			return nil, errors.Wrap(err, "scanning a class section")
		}

		ret = append(ret, s)
	}

	return ret, rows.Err()
}

// GetAllClassSections returns all cached class sections
func GetAllClassSections(db *DB) ([]ClassSection, error) {
	rows, err := db.Query("SELECT id, institution_id, adviser_id, title, grade_level, academic_year FROM class_sections ORDER BY title")
	if err != nil {
		return nil, errors.Wrap(err, "querying class sections")
	}

	return scanClassSections(rows)
}

// GetClassSectionsByInstitution returns the class sections of an institution
func GetClassSectionsByInstitution(db *DB, institutionID string) ([]ClassSection, error) {
	rows, err := db.Query("SELECT id, institution_id, adviser_id, title, grade_level, academic_year FROM class_sections WHERE institution_id = ? ORDER BY title", institutionID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying class sections of institution %s", institutionID)
	}

	return scanClassSections(rows)
}

// ClassSectionExists checks if a class section with the given id is cached locally
func ClassSectionExists(db *DB, id string) (bool, error) {
	return exists(db, "SELECT count(*) FROM class_sections WHERE id = ?", id)
}

// ClearClassSections deletes all cached class sections. Used only by explicit
// cache reset.
func ClearClassSections(db *DB) error {
	if _, err := db.Exec("DELETE FROM class_sections"); err != nil {
		return errors.Wrap(err, "clearing class sections")
	}

	return nil
}
