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

func TestStudentUpsertIdempotent(t *testing.T) {
	db := InitTestMemoryDB(t)

	s := Student{ID: "student-1", FirstName: "Juan", LastName: "Dela Cruz", LRN: "123456789012"}
	if err := s.Upsert(db); err != nil {
		t.Fatal(err, "upserting student")
	}

	s.FirstName = "Juanito"
	if err := s.Upsert(db); err != nil {
		t.Fatal(err, "upserting student again")
	}

	var count int
	MustScan(t, "counting students", db.QueryRow("SELECT count(*) FROM students"), &count)
	assert.Equal(t, count, 1, "student count mismatch")

	got, err := GetStudent(db, "student-1")
	if err != nil {
		t.Fatal(err, "getting student")
	}
	assert.Equal(t, got.FirstName, "Juanito", "first name mismatch")
}

func setupClassSection(t *testing.T, db *DB, sectionID string) {
	t.Helper()

	MustUpsertInstitution(t, db, "inst-1", "Sunrise Elementary")

	cs := ClassSection{
		ID:            sectionID,
		InstitutionID: "inst-1",
		Title:         "Mabini",
		GradeLevel:    "4",
		AcademicYear:  "2025-2026",
	}
	if err := cs.Upsert(db); err != nil {
		t.Fatal(err, "upserting class section fixture")
	}
}

func TestStudentSectionUpsert(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupClassSection(t, db, "section-1")
	MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	e := StudentSection{
		ID:             "enrollment-1",
		StudentID:      "student-1",
		ClassSectionID: "section-1",
		AcademicYear:   "2025-2026",
	}
	if err := e.Upsert(db); err != nil {
		t.Fatal(err, "upserting enrollment")
	}

	got, err := GetStudentSectionsByClassSection(db, "section-1")
	if err != nil {
		t.Fatal(err, "getting enrollments")
	}
	assert.Equal(t, len(got), 1, "enrollment count mismatch")
	assert.DeepEqual(t, got[0], e, "enrollment mismatch")
}

func TestStudentSectionUpsertCompositeConflict(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupClassSection(t, db, "section-1")
	MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	e := StudentSection{
		ID:             "enrollment-1",
		StudentID:      "student-1",
		ClassSectionID: "section-1",
		AcademicYear:   "2025-2026",
	}
	if err := e.Upsert(db); err != nil {
		t.Fatal(err, "upserting enrollment")
	}

	// the remote re-issues the same enrollment under a different id
	e.ID = "enrollment-2"
	if err := e.Upsert(db); err != nil {
		t.Fatal(err, "upserting enrollment with new id")
	}

	got, err := GetStudentSectionsByClassSection(db, "section-1")
	if err != nil {
		t.Fatal(err, "getting enrollments")
	}
	assert.Equal(t, len(got), 1, "enrollment count mismatch")
	assert.Equal(t, got[0].ID, "enrollment-2", "enrollment id mismatch")
}

func TestStudentSectionUpsertMissingStudent(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupClassSection(t, db, "section-1")

	e := StudentSection{
		ID:             "enrollment-1",
		StudentID:      "no-such-student",
		ClassSectionID: "section-1",
		AcademicYear:   "2025-2026",
	}
	err := e.Upsert(db)
	assert.NotEqual(t, err, nil, "expected a foreign key error")

	var count int
	MustScan(t, "counting enrollments", db.QueryRow("SELECT count(*) FROM student_sections"), &count)
	assert.Equal(t, count, 0, "enrollment count mismatch")
}

func TestGetStudentsByClassSection(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupClassSection(t, db, "section-1")
	MustUpsertStudent(t, db, "student-1", "Dela Cruz")
	MustUpsertStudent(t, db, "student-2", "Reyes")
	MustUpsertStudent(t, db, "student-3", "Bautista")

	enrollments := []StudentSection{
		{ID: "enrollment-1", StudentID: "student-1", ClassSectionID: "section-1", AcademicYear: "2025-2026"},
		{ID: "enrollment-2", StudentID: "student-2", ClassSectionID: "section-1", AcademicYear: "2025-2026"},
	}
	for _, e := range enrollments {
		if err := e.Upsert(db); err != nil {
			t.Fatal(err, "upserting enrollment fixture")
		}
	}

	got, err := GetStudentsByClassSection(db, "section-1")
	if err != nil {
		t.Fatal(err, "getting students")
	}
	assert.Equal(t, len(got), 2, "student count mismatch")
}

func TestClassSectionUpsertNullAdviser(t *testing.T) {
	db := InitTestMemoryDB(t)

	MustUpsertInstitution(t, db, "inst-1", "Sunrise Elementary")

	cs := ClassSection{
		ID:            "section-1",
		InstitutionID: "inst-1",
		AdviserID:     sql.NullString{},
		Title:         "Mabini",
		GradeLevel:    "4",
		AcademicYear:  "2025-2026",
	}
	if err := cs.Upsert(db); err != nil {
		t.Fatal(err, "upserting class section")
	}

	got, err := GetClassSection(db, "section-1")
	if err != nil {
		t.Fatal(err, "getting class section")
	}
	assert.Equal(t, got.AdviserID.Valid, false, "adviser should be null")
}

func TestClassSectionUpsertMissingInstitution(t *testing.T) {
	db := InitTestMemoryDB(t)

	cs := ClassSection{
		ID:            "section-1",
		InstitutionID: "no-such-institution",
		Title:         "Mabini",
		GradeLevel:    "4",
		AcademicYear:  "2025-2026",
	}
	err := cs.Upsert(db)
	assert.NotEqual(t, err, nil, "expected a foreign key error")
}
