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
	"testing"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/assert"
)

func TestStudentRunningGradeUpsert(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupSubject(t, db, "subject-1")
	MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	g := StudentRunningGrade{
		ID:        "grade-1",
		StudentID: "student-1",
		SubjectID: "subject-1",
		Quarter:   "1",
		Grade:     88.5,
	}
	if err := g.Upsert(db); err != nil {
		t.Fatal(err, "upserting running grade")
	}

	got, err := GetRunningGradesByStudent(db, "student-1")
	if err != nil {
		t.Fatal(err, "getting running grades")
	}
	assert.Equal(t, len(got), 1, "running grade count mismatch")
	assert.Equal(t, got[0].Grade, 88.5, "grade mismatch")
	assert.Equal(t, got[0].FinalGrade.Valid, false, "final grade should be null")
}

func TestStudentRunningGradeUpsertCompositeConflict(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupSubject(t, db, "subject-1")
	MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	g := StudentRunningGrade{
		ID:        "grade-1",
		StudentID: "student-1",
		SubjectID: "subject-1",
		Quarter:   "1",
		Grade:     88.5,
	}
	if err := g.Upsert(db); err != nil {
		t.Fatal(err, "upserting running grade")
	}

	// the remote recomputes the grade and re-issues it under a different id
	g.ID = "grade-2"
	g.Grade = 90
	g.FinalGrade = sql.NullFloat64{Float64: 90, Valid: true}
	if err := g.Upsert(db); err != nil {
		t.Fatal(err, "upserting running grade with new id")
	}

	got, err := GetRunningGradesBySubject(db, "subject-1")
	if err != nil {
		t.Fatal(err, "getting running grades")
	}
	assert.Equal(t, len(got), 1, "running grade count mismatch")
	assert.Equal(t, got[0].ID, "grade-2", "running grade id mismatch")
	assert.Equal(t, got[0].Grade, 90.0, "grade mismatch")
	assert.Equal(t, got[0].FinalGrade.Float64, 90.0, "final grade mismatch")
}

func TestStudentRunningGradeUpsertMissingSubject(t *testing.T) {
	db := InitTestMemoryDB(t)

	MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	g := StudentRunningGrade{
		ID:        "grade-1",
		StudentID: "student-1",
		SubjectID: "no-such-subject",
		Quarter:   "1",
		Grade:     88.5,
	}
	err := g.Upsert(db)
	assert.NotEqual(t, err, nil, "expected a foreign key error")
}
