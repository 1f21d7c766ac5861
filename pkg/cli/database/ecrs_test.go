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
	"testing"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/assert"
)

func setupSubject(t *testing.T, db *DB, subjectID string) {
	t.Helper()

	setupClassSection(t, db, "section-1")

	s := Subject{
		ID:             subjectID,
		InstitutionID:  "inst-1",
		ClassSectionID: "section-1",
		Title:          "Mathematics",
		StartTime:      "08:00",
		EndTime:        "09:00",
	}
	if err := s.Upsert(db); err != nil {
		t.Fatal(err, "upserting subject fixture")
	}
}

func setupEcrItem(t *testing.T, db *DB, ecrID, itemID string) {
	t.Helper()

	setupSubject(t, db, "subject-1")

	ecr := SubjectEcr{ID: ecrID, SubjectID: "subject-1", Title: "Written Works", Percentage: 30, Quarter: "1"}
	if err := ecr.Upsert(db); err != nil {
		t.Fatal(err, "upserting ecr fixture")
	}

	item := SubjectEcrItem{ID: itemID, SubjectEcrID: ecrID, Title: "Quiz 1", TotalItems: 20, Quarter: "1"}
	if err := item.Upsert(db); err != nil {
		t.Fatal(err, "upserting ecr item fixture")
	}
}

func TestSubjectEcrUpsertIdempotent(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupSubject(t, db, "subject-1")

	ecr := SubjectEcr{ID: "ecr-1", SubjectID: "subject-1", Title: "Written Works", Percentage: 30, Quarter: "1"}
	if err := ecr.Upsert(db); err != nil {
		t.Fatal(err, "upserting ecr")
	}

	ecr.Percentage = 40
	if err := ecr.Upsert(db); err != nil {
		t.Fatal(err, "upserting ecr again")
	}

	got, err := GetSubjectEcrsBySubject(db, "subject-1")
	if err != nil {
		t.Fatal(err, "getting ecrs")
	}
	assert.Equal(t, len(got), 1, "ecr count mismatch")
	assert.Equal(t, got[0].Percentage, 40.0, "percentage mismatch")
}

func TestSubjectEcrUpsertMissingSubject(t *testing.T) {
	db := InitTestMemoryDB(t)

	ecr := SubjectEcr{ID: "ecr-1", SubjectID: "no-such-subject", Title: "Written Works", Percentage: 30, Quarter: "1"}
	err := ecr.Upsert(db)
	assert.NotEqual(t, err, nil, "expected a foreign key error")
}

func TestStudentEcrItemScoreUpsert(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupEcrItem(t, db, "ecr-1", "item-1")
	MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	score := StudentEcrItemScore{ID: "score-1", StudentID: "student-1", SubjectEcrItemID: "item-1", Score: 18}
	if err := score.Upsert(db); err != nil {
		t.Fatal(err, "upserting score")
	}

	got, err := GetScoreByStudentAndItem(db, "student-1", "item-1")
	if err != nil {
		t.Fatal(err, "getting score")
	}
	assert.Equal(t, got.Score, 18.0, "score mismatch")
}

func TestStudentEcrItemScoreUpsertCompositeConflict(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupEcrItem(t, db, "ecr-1", "item-1")
	MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	score := StudentEcrItemScore{ID: "score-1", StudentID: "student-1", SubjectEcrItemID: "item-1", Score: 18}
	if err := score.Upsert(db); err != nil {
		t.Fatal(err, "upserting score")
	}

	// the remote re-issues the same score entry under a different id
	score.ID = "score-2"
	score.Score = 19
	if err := score.Upsert(db); err != nil {
		t.Fatal(err, "upserting score with new id")
	}

	var count int
	MustScan(t, "counting scores", db.QueryRow("SELECT count(*) FROM student_ecr_item_scores"), &count)
	assert.Equal(t, count, 1, "score count mismatch")

	got, err := GetScoreByStudentAndItem(db, "student-1", "item-1")
	if err != nil {
		t.Fatal(err, "getting score")
	}
	assert.Equal(t, got.ID, "score-2", "score id mismatch")
	assert.Equal(t, got.Score, 19.0, "score mismatch")
}

func TestStudentEcrItemScoreUpsertMissingStudent(t *testing.T) {
	db := InitTestMemoryDB(t)

	setupEcrItem(t, db, "ecr-1", "item-1")

	score := StudentEcrItemScore{ID: "score-1", StudentID: "no-such-student", SubjectEcrItemID: "item-1", Score: 18}
	err := score.Upsert(db)
	assert.NotEqual(t, err, nil, "expected a foreign key error")
}
