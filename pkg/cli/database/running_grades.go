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
	"github.com/pkg/errors"
)

// Upsert writes the running grade. The upsert is keyed both by id and by the
// composite (student, subject, quarter).
func (g StudentRunningGrade) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO student_running_grades (id, student_id, subject_id, quarter, grade, final_grade)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			student_id = excluded.student_id,
			subject_id = excluded.subject_id,
			quarter = excluded.quarter,
			grade = excluded.grade,
			final_grade = excluded.final_grade
		ON CONFLICT(student_id, subject_id, quarter) DO UPDATE SET
			id = excluded.id,
			grade = excluded.grade,
			final_grade = excluded.final_grade`,
		g.ID, g.StudentID, g.SubjectID, g.Quarter, g.Grade, g.FinalGrade)
	if err != nil {
		return errors.Wrapf(err, "upserting running grade %s", g.ID)
	}

	return nil
}

// GetRunningGradesByStudent returns the running grades of a student
func GetRunningGradesByStudent(db *DB, studentID string) ([]StudentRunningGrade, error) {
	rows, err := db.Query("SELECT id, student_id, subject_id, quarter, grade, final_grade FROM student_running_grades WHERE student_id = ? ORDER BY quarter", studentID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying running grades of student %s", studentID)
	}
	defer rows.Close()

	var ret []StudentRunningGrade
	for rows.Next() {
		var g StudentRunningGrade
		if err := rows.Scan(&g.ID, &g.StudentID, &g.SubjectID, &g.Quarter, &g.Grade, &g.FinalGrade); err != nil {
			return nil, errors.Wrap(err, "scanning a running grade")
		}

		ret = append(ret, g)
	}

	return ret, rows.Err()
}

// GetRunningGradesBySubject returns the running grades recorded for a subject
func GetRunningGradesBySubject(db *DB, subjectID string) ([]StudentRunningGrade, error) {
	rows, err := db.Query("SELECT id, student_id, subject_id, quarter, grade, final_grade FROM student_running_grades WHERE subject_id = ? ORDER BY quarter", subjectID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying running grades of subject %s", subjectID)
	}
	defer rows.Close()

	var ret []StudentRunningGrade
	for rows.Next() {
		var g StudentRunningGrade
		if err := rows.Scan(&g.ID, &g.StudentID, &g.SubjectID, &g.Quarter, &g.Grade, &g.FinalGrade); err != nil {
			return nil, errors.Wrap(err, "scanning a running grade")
		}

		ret = append(ret, g)
	}

	return ret, rows.Err()
}

// ClearStudentRunningGrades deletes all cached running grades. Used only by
// explicit cache reset.
func ClearStudentRunningGrades(db *DB) error {
	if _, err := db.Exec("DELETE FROM student_running_grades"); err != nil {
		return errors.Wrap(err, "clearing running grades")
	}

	return nil
}
