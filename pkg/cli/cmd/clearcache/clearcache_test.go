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

package clearcache

import (
	"database/sql"
	"testing"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/assert"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/pkg/errors"
)

func TestDo(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	database.MustUpsertInstitution(t, db, "inst-1", "Sunrise Elementary")
	database.MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	cs := database.ClassSection{ID: "section-1", InstitutionID: "inst-1", Title: "Mabini", GradeLevel: "4", AcademicYear: "2025-2026"}
	if err := cs.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting class section"))
	}
	subj := database.Subject{ID: "subject-1", InstitutionID: "inst-1", ClassSectionID: "section-1", Title: "Mathematics"}
	if err := subj.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting subject"))
	}
	e := database.StudentSection{ID: "enrollment-1", StudentID: "student-1", ClassSectionID: "section-1", AcademicYear: "2025-2026"}
	if err := e.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting enrollment"))
	}
	g := database.StudentRunningGrade{ID: "grade-1", StudentID: "student-1", SubjectID: "subject-1", Quarter: "1", Grade: 88.5}
	if err := g.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting running grade"))
	}

	u := database.User{ID: "user-1", LastName: "Santos", Token: sql.NullString{String: "token-abc", Valid: true}}
	if err := u.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting user"))
	}

	if err := database.UpsertSystem(db, consts.SystemLastDownloadAt, "2025-09-01T08:00:00Z"); err != nil {
		t.Fatal(errors.Wrap(err, "setting last download time"))
	}

	ctx := context.AppCtx{DB: db}
	if err := Do(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "clearing cache"))
	}

	for _, table := range []string{
		consts.TableInstitutions,
		consts.TableClassSections,
		consts.TableSubjects,
		consts.TableStudents,
		consts.TableStudentSections,
		consts.TableStudentRunningGrades,
	} {
		var count int
		database.MustScan(t, "counting "+table, db.QueryRow("SELECT count(*) FROM "+table), &count)
		assert.Equal(t, count, 0, table+" should be empty")
	}

	// the signed-in user survives a cache reset
	got, err := database.GetUser(db, "user-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting user"))
	}
	assert.Equal(t, got.Token.String, "token-abc", "token mismatch")

	var lastDownloadAt string
	err = database.GetSystem(db, consts.SystemLastDownloadAt, &lastDownloadAt)
	assert.Equal(t, errors.Cause(err), sql.ErrNoRows, "last download time should be cleared")
}
