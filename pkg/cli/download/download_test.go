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

package download

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/assert"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/session"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/clock"
	"github.com/pkg/errors"
)

func newTestCtx(t *testing.T, db *database.DB, apiEndpoint string) context.AppCtx {
	t.Helper()

	c := &clock.Mock{}
	c.SetNow(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))

	return context.AppCtx{
		APIEndpoint: apiEndpoint,
		DB:          db,
		Session:     session.Session{UserID: "user-1", Token: "token-abc"},
		Clock:       c,
	}
}

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestAssignedLoads(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	// two sections share the same embedded institution
	server := newTestServer(t, map[string]string{
		"/v1/assigned-loads": `{
			"class_sections": [
				{
					"id": "section-1",
					"institution": {"id": "inst-1", "title": "Sunrise Elementary"},
					"adviser": {"id": "user-1", "first_name": "Maria", "last_name": "Santos", "email": "maria@example.com", "role": "teacher"},
					"title": "Mabini",
					"grade_level": "4",
					"academic_year": "2025-2026"
				},
				{
					"id": "section-2",
					"institution": {"id": "inst-1", "title": "Sunrise Elementary"},
					"adviser": null,
					"title": "Rizal",
					"grade_level": "4",
					"academic_year": "2025-2026"
				}
			],
			"subjects": [
				{
					"id": "subject-1",
					"institution_id": "inst-1",
					"class_section_id": "section-1",
					"adviser": "user-1",
					"title": "Mathematics",
					"start_time": "08:00",
					"end_time": "09:00"
				}
			]
		}`,
	})

	ctx := newTestCtx(t, db, server.URL)

	res, err := AssignedLoads(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading assigned loads"))
	}

	assert.Equal(t, res.Success, true, "run should succeed")
	assert.Equal(t, len(res.Errors), 0, "errors should be empty")
	assert.Equal(t, res.Counts[consts.TableInstitutions], Count{Saved: 1, Total: 1}, "institution counts mismatch")
	assert.Equal(t, res.Counts[consts.TableUsers], Count{Saved: 1, Total: 1}, "user counts mismatch")
	assert.Equal(t, res.Counts[consts.TableClassSections], Count{Saved: 2, Total: 2}, "class section counts mismatch")
	assert.Equal(t, res.Counts[consts.TableSubjects], Count{Saved: 1, Total: 1}, "subject counts mismatch")

	got, err := database.GetClassSection(db, "section-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting class section"))
	}
	assert.Equal(t, got.InstitutionID, "inst-1", "institution id mismatch")
	assert.Equal(t, got.AdviserID.String, "user-1", "adviser id mismatch")
}

func TestAssignedLoadsSkipsMissingInstitution(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	// the institution arrives as a bare reference not present locally
	server := newTestServer(t, map[string]string{
		"/v1/assigned-loads": `{
			"class_sections": [
				{
					"id": "section-1",
					"institution": "missing-inst",
					"adviser": null,
					"title": "Mabini",
					"grade_level": "4",
					"academic_year": "2025-2026"
				}
			],
			"subjects": []
		}`,
	})

	ctx := newTestCtx(t, db, server.URL)

	res, err := AssignedLoads(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading assigned loads"))
	}

	assert.Equal(t, res.Success, true, "run should succeed")
	assert.Equal(t, len(res.Errors), 1, "error count mismatch")
	assert.Equal(t, res.Errors[0].Entity, consts.TableClassSections, "error entity mismatch")
	assert.Equal(t, res.Errors[0].ID, "section-1", "error id mismatch")
	assert.Equal(t, res.Counts[consts.TableClassSections], Count{Saved: 0, Total: 1}, "class section counts mismatch")

	_, err = database.GetClassSection(db, "section-1")
	assert.Equal(t, err, database.ErrNotFound, "class section should not be persisted")
}

func TestAssignedLoadsNotLoggedIn(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	ctx := newTestCtx(t, db, "http://localhost")
	ctx.Session = session.Session{}

	_, err := AssignedLoads(ctx)
	assert.Equal(t, err, ErrNotLoggedIn, "error mismatch")
}

func TestAssignedLoadsAuthExpired(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ctx := newTestCtx(t, db, server.URL)

	_, err := AssignedLoads(ctx)
	assert.Equal(t, err, ErrAuthExpired, "error mismatch")
}

func TestClassSectionStudents(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	database.MustUpsertInstitution(t, db, "inst-1", "Sunrise Elementary")
	cs := database.ClassSection{ID: "section-1", InstitutionID: "inst-1", Title: "Mabini", GradeLevel: "4", AcademicYear: "2025-2026"}
	if err := cs.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting class section fixture"))
	}

	server := newTestServer(t, map[string]string{
		"/v1/class-sections/section-1/students": `{
			"students": [
				{
					"id": "enrollment-1",
					"student": {"id": "student-1", "first_name": "Juan", "last_name": "Dela Cruz", "lrn": "123456789012"},
					"academic_year": "2025-2026"
				},
				{
					"id": "enrollment-2",
					"student": "missing-student",
					"academic_year": "2025-2026"
				}
			]
		}`,
	})

	ctx := newTestCtx(t, db, server.URL)

	res, err := ClassSectionStudents(ctx, "section-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading roster"))
	}

	assert.Equal(t, res.Success, true, "run should succeed")
	assert.Equal(t, res.Counts[consts.TableStudents], Count{Saved: 1, Total: 1}, "student counts mismatch")
	assert.Equal(t, res.Counts[consts.TableStudentSections], Count{Saved: 1, Total: 2}, "enrollment counts mismatch")
	assert.Equal(t, len(res.Errors), 1, "error count mismatch")
	assert.Equal(t, res.Errors[0].ID, "enrollment-2", "error id mismatch")

	students, err := database.GetStudentsByClassSection(db, "section-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting students"))
	}
	assert.Equal(t, len(students), 1, "student count mismatch")
}

func TestClassSectionStudentsEmptyScope(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	// no route registered, so the server responds 404
	server := newTestServer(t, map[string]string{})

	ctx := newTestCtx(t, db, server.URL)

	res, err := ClassSectionStudents(ctx, "section-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading roster"))
	}

	assert.Equal(t, res.Success, true, "empty scope should succeed")
	assert.Equal(t, len(res.Counts), 0, "counts should be empty")
	assert.Equal(t, len(res.Errors), 0, "errors should be empty")
}

func setupSubjectFixture(t *testing.T, db *database.DB) {
	t.Helper()

	database.MustUpsertInstitution(t, db, "inst-1", "Sunrise Elementary")
	cs := database.ClassSection{ID: "section-1", InstitutionID: "inst-1", Title: "Mabini", GradeLevel: "4", AcademicYear: "2025-2026"}
	if err := cs.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting class section fixture"))
	}
	s := database.Subject{ID: "subject-1", InstitutionID: "inst-1", ClassSectionID: "section-1", Title: "Mathematics", StartTime: "08:00", EndTime: "09:00"}
	if err := s.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting subject fixture"))
	}
}

func TestEcrTree(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	setupSubjectFixture(t, db)

	server := newTestServer(t, map[string]string{
		"/v1/subjects/subject-1/ecr": `{
			"ecrs": [
				{
					"id": "ecr-1",
					"title": "Written Works",
					"percentage": 30,
					"quarter": "1",
					"items": [
						{
							"id": "item-1",
							"title": "Quiz 1",
							"total_items": 20,
							"quarter": "1",
							"scores": [
								{
									"id": "score-1",
									"student": {"id": "student-1", "first_name": "Juan", "last_name": "Dela Cruz"},
									"score": 18
								},
								{
									"id": "score-2",
									"student": "missing-student",
									"score": 15
								}
							]
						}
					]
				}
			]
		}`,
	})

	ctx := newTestCtx(t, db, server.URL)

	res, err := EcrTree(ctx, "subject-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading ecr tree"))
	}

	assert.Equal(t, res.Success, true, "run should succeed")
	assert.Equal(t, res.Counts[consts.TableSubjectEcrs], Count{Saved: 1, Total: 1}, "ecr counts mismatch")
	assert.Equal(t, res.Counts[consts.TableSubjectEcrItems], Count{Saved: 1, Total: 1}, "item counts mismatch")
	assert.Equal(t, res.Counts[consts.TableStudentEcrItemScores], Count{Saved: 1, Total: 2}, "score counts mismatch")
	assert.Equal(t, len(res.Errors), 1, "error count mismatch")
	assert.Equal(t, res.Errors[0].ID, "score-2", "error id mismatch")

	got, err := database.GetScoreByStudentAndItem(db, "student-1", "item-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting score"))
	}
	assert.Equal(t, got.Score, 18.0, "score mismatch")
}

func TestEcrTreeMissingSubject(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	server := newTestServer(t, map[string]string{
		"/v1/subjects/subject-9/ecr": `{
			"ecrs": [
				{"id": "ecr-1", "title": "Written Works", "percentage": 30, "quarter": "1", "items": []}
			]
		}`,
	})

	ctx := newTestCtx(t, db, server.URL)

	res, err := EcrTree(ctx, "subject-9")
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading ecr tree"))
	}

	assert.Equal(t, res.Counts[consts.TableSubjectEcrs], Count{Saved: 0, Total: 1}, "ecr counts mismatch")
	assert.Equal(t, len(res.Errors), 1, "error count mismatch")
}

func TestRunningGrades(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	setupSubjectFixture(t, db)
	database.MustUpsertStudent(t, db, "student-1", "Dela Cruz")

	server := newTestServer(t, map[string]string{
		"/v1/subjects/subject-1/running-grades": `{
			"running_grades": [
				{
					"id": "grade-1",
					"student": "student-1",
					"subject_id": "subject-1",
					"quarter": "1",
					"grade": 88.5,
					"final_grade": null
				}
			]
		}`,
	})

	ctx := newTestCtx(t, db, server.URL)

	res, err := RunningGrades(ctx, "subject-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading running grades"))
	}

	assert.Equal(t, res.Success, true, "run should succeed")
	assert.Equal(t, res.Counts[consts.TableStudentRunningGrades], Count{Saved: 1, Total: 1}, "counts mismatch")

	got, err := database.GetRunningGradesByStudent(db, "student-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting running grades"))
	}
	assert.Equal(t, len(got), 1, "running grade count mismatch")
	assert.Equal(t, got[0].FinalGrade.Valid, false, "final grade should be null")
}

func TestAll(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	server := newTestServer(t, map[string]string{
		"/v1/institutions/current": `{
			"institution": {"id": "inst-1", "title": "Sunrise Elementary"}
		}`,
		"/v1/assigned-loads": `{
			"class_sections": [
				{
					"id": "section-1",
					"institution": "inst-1",
					"adviser": null,
					"title": "Mabini",
					"grade_level": "4",
					"academic_year": "2025-2026"
				}
			],
			"subjects": [
				{
					"id": "subject-1",
					"institution_id": "inst-1",
					"class_section_id": "section-1",
					"title": "Mathematics",
					"start_time": "08:00",
					"end_time": "09:00"
				}
			]
		}`,
		"/v1/class-sections/section-1/students": `{
			"students": [
				{
					"id": "enrollment-1",
					"student": {"id": "student-1", "first_name": "Juan", "last_name": "Dela Cruz"},
					"academic_year": "2025-2026"
				}
			]
		}`,
		"/v1/subjects/subject-1/ecr": `{
			"ecrs": []
		}`,
		"/v1/subjects/subject-1/running-grades": `{
			"running_grades": [
				{
					"id": "grade-1",
					"student": "student-1",
					"subject_id": "subject-1",
					"quarter": "1",
					"grade": 88.5
				}
			]
		}`,
	})

	ctx := newTestCtx(t, db, server.URL)

	res, err := All(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading all"))
	}

	assert.Equal(t, res.Success, true, "run should succeed")
	assert.Equal(t, len(res.Errors), 0, "errors should be empty")
	assert.Equal(t, res.Counts[consts.TableInstitutions], Count{Saved: 1, Total: 1}, "institution counts mismatch")
	assert.Equal(t, res.Counts[consts.TableClassSections], Count{Saved: 1, Total: 1}, "class section counts mismatch")
	assert.Equal(t, res.Counts[consts.TableSubjects], Count{Saved: 1, Total: 1}, "subject counts mismatch")
	assert.Equal(t, res.Counts[consts.TableStudents], Count{Saved: 1, Total: 1}, "student counts mismatch")
	assert.Equal(t, res.Counts[consts.TableStudentSections], Count{Saved: 1, Total: 1}, "enrollment counts mismatch")
	assert.Equal(t, res.Counts[consts.TableStudentRunningGrades], Count{Saved: 1, Total: 1}, "running grade counts mismatch")

	var lastDownloadAt string
	if err := database.GetSystem(db, consts.SystemLastDownloadAt, &lastDownloadAt); err != nil {
		t.Fatal(errors.Wrap(err, "getting last download time"))
	}
	assert.Equal(t, lastDownloadAt, "2025-09-01T08:00:00Z", "last download time mismatch")
}
