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

// Upsert writes the student, overwriting every column on conflict
func (s Student) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO students (id, first_name, middle_name, last_name, ext_name, birthdate, gender, lrn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			middle_name = excluded.middle_name,
			last_name = excluded.last_name,
			ext_name = excluded.ext_name,
			birthdate = excluded.birthdate,
			gender = excluded.gender,
			lrn = excluded.lrn`,
		s.ID, s.FirstName, s.MiddleName, s.LastName, s.ExtName, s.Birthdate, s.Gender, s.LRN)
	if err != nil {
		return errors.Wrapf(err, "upserting student %s", s.ID)
	}

	return nil
}

// GetStudent finds a student by id
func GetStudent(db *DB, id string) (Student, error) {
	var ret Student

	err := db.QueryRow("SELECT id, first_name, middle_name, last_name, ext_name, birthdate, gender, lrn FROM students WHERE id = ?", id).
		Scan(&ret.ID, &ret.FirstName, &ret.MiddleName, &ret.LastName, &ret.ExtName, &ret.Birthdate, &ret.Gender, &ret.LRN)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding student %s", id)
	}

	return ret, nil
}

// GetStudentsByClassSection returns the students enrolled in a class section,
// joined through their enrollment rows.
func GetStudentsByClassSection(db *DB, classSectionID string) ([]Student, error) {
	rows, err := db.Query(`SELECT s.id, s.first_name, s.middle_name, s.last_name, s.ext_name, s.birthdate, s.gender, s.lrn
		FROM students s
		INNER JOIN student_sections ss ON ss.student_id = s.id
		WHERE ss.class_section_id = ?
		ORDER BY s.last_name, s.first_name`, classSectionID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying students of class section %s", classSectionID)
	}
	defer rows.Close()

	var ret []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.FirstName, &s.MiddleName, &s.LastName, &s.ExtName, &s.Birthdate, &s.Gender, &s.LRN); err != nil {
			return nil, errors.Wrap(err, "scanning a student")
		}

		ret = append(ret, s)
	}

	return ret, rows.Err()
}

// StudentExists checks if a student with the given id is cached locally
func StudentExists(db *DB, id string) (bool, error) {
	return exists(db, "SELECT count(*) FROM students WHERE id = ?", id)
}

// ClearStudents deletes all cached students. Used only by explicit cache reset.
func ClearStudents(db *DB) error {
	if _, err := db.Exec("DELETE FROM students"); err != nil {
		return errors.Wrap(err, "clearing students")
	}

	return nil
}

// Upsert writes the enrollment. The upsert is keyed both by id and by the
// composite (student, section, academic year) so a re-downloaded enrollment
// updates rather than duplicates.
func (s StudentSection) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO student_sections (id, student_id, class_section_id, academic_year)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			student_id = excluded.student_id,
			class_section_id = excluded.class_section_id,
			academic_year = excluded.academic_year
		ON CONFLICT(student_id, class_section_id, academic_year) DO UPDATE SET
			id = excluded.id`,
		s.ID, s.StudentID, s.ClassSectionID, s.AcademicYear)
	if err != nil {
		return errors.Wrapf(err, "upserting student section %s", s.ID)
	}

	return nil
}

// GetStudentSectionsByClassSection returns the enrollments of a class section
func GetStudentSectionsByClassSection(db *DB, classSectionID string) ([]StudentSection, error) {
	rows, err := db.Query("SELECT id, student_id, class_section_id, academic_year FROM student_sections WHERE class_section_id = ?", classSectionID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying student sections of class section %s", classSectionID)
	}
	defer rows.Close()

	var ret []StudentSection
	for rows.Next() {
		var s StudentSection
		if err := rows.Scan(&s.ID, &s.StudentID, &s.ClassSectionID, &s.AcademicYear); err != nil {
			return nil, errors.Wrap(err, "scanning a student section")
		}

		ret = append(ret, s)
	}

	return ret, rows.Err()
}

// ClearStudentSections deletes all cached enrollments. Used only by explicit
// cache reset.
func ClearStudentSections(db *DB) error {
	if _, err := db.Exec("DELETE FROM student_sections"); err != nil {
		return errors.Wrap(err, "clearing student sections")
	}

	return nil
}
