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
	"database/sql"
	"time"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/client"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func respToInstitution(i client.RespInstitution) database.Institution {
	return database.Institution{
		ID:       i.ID,
		Title:    i.Title,
		Address:  i.Address,
		Division: i.Division,
		Region:   i.Region,
		GovID:    i.GovID,
		Logo:     i.Logo,
	}
}

func respToUser(u client.RespUser) database.User {
	return database.User{
		ID:         u.ID,
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       u.Role,
	}
}

func respToStudent(s client.RespStudent) database.Student {
	return database.Student{
		ID:         s.ID,
		FirstName:  s.FirstName,
		MiddleName: s.MiddleName,
		LastName:   s.LastName,
		ExtName:    s.ExtName,
		Birthdate:  s.Birthdate,
		Gender:     s.Gender,
		LRN:        s.LRN,
	}
}

func (r *run) saveInstitution(i database.Institution) {
	if !r.markSeen(consts.TableInstitutions, i.ID) {
		return
	}

	r.countTotal(consts.TableInstitutions)

	if err := i.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableInstitutions, i.ID, err.Error())
		return
	}

	r.countSaved(consts.TableInstitutions)
}

func (r *run) saveUser(u database.User) {
	if !r.markSeen(consts.TableUsers, u.ID) {
		return
	}

	r.countTotal(consts.TableUsers)

	if err := u.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableUsers, u.ID, err.Error())
		return
	}

	r.countSaved(consts.TableUsers)
}

func (r *run) saveStudent(s database.Student) {
	if !r.markSeen(consts.TableStudents, s.ID) {
		return
	}

	r.countTotal(consts.TableStudents)

	if err := s.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableStudents, s.ID, err.Error())
		return
	}

	r.countSaved(consts.TableStudents)
}

// requireParent verifies that a row required by a foreign key is present
// locally. On a miss the child is skipped and recorded.
func (r *run) requireParent(childEntity, childID string, check func() (bool, error), parentEntity, parentID string) bool {
	ok, err := check()
	if err != nil {
		r.skip(childEntity, childID, err.Error())
		return false
	}
	if !ok {
		r.skip(childEntity, childID, parentEntity+" "+parentID+" is not present locally")
		return false
	}

	return true
}

func (r *run) processClassSection(cs client.RespClassSection) {
	if cs.Institution.IsEmbedded() {
		r.saveInstitution(respToInstitution(*cs.Institution.Institution))
	}
	if cs.Adviser != nil && cs.Adviser.IsEmbedded() {
		r.saveUser(respToUser(*cs.Adviser.User))
	}

	if !r.markSeen(consts.TableClassSections, cs.ID) {
		return
	}

	r.countTotal(consts.TableClassSections)

	if ok := r.requireParent(consts.TableClassSections, cs.ID, func() (bool, error) {
		return database.InstitutionExists(r.ctx.DB, cs.Institution.ID)
	}, consts.TableInstitutions, cs.Institution.ID); !ok {
		return
	}

	var adviserID string
	if cs.Adviser != nil {
		adviserID = cs.Adviser.ID
	}

	row := database.ClassSection{
		ID:            cs.ID,
		InstitutionID: cs.Institution.ID,
		AdviserID:     nullString(adviserID),
		Title:         cs.Title,
		GradeLevel:    cs.GradeLevel,
		AcademicYear:  cs.AcademicYear,
	}
	if err := row.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableClassSections, cs.ID, err.Error())
		return
	}

	r.countSaved(consts.TableClassSections)
}

func (r *run) processSubject(s client.RespSubject) {
	if s.Adviser != nil && s.Adviser.IsEmbedded() {
		r.saveUser(respToUser(*s.Adviser.User))
	}

	if !r.markSeen(consts.TableSubjects, s.ID) {
		return
	}

	r.countTotal(consts.TableSubjects)

	if ok := r.requireParent(consts.TableSubjects, s.ID, func() (bool, error) {
		return database.InstitutionExists(r.ctx.DB, s.InstitutionID)
	}, consts.TableInstitutions, s.InstitutionID); !ok {
		return
	}
	if ok := r.requireParent(consts.TableSubjects, s.ID, func() (bool, error) {
		return database.ClassSectionExists(r.ctx.DB, s.ClassSectionID)
	}, consts.TableClassSections, s.ClassSectionID); !ok {
		return
	}

	var adviserID string
	if s.Adviser != nil {
		adviserID = s.Adviser.ID
	}

	row := database.Subject{
		ID:              s.ID,
		InstitutionID:   s.InstitutionID,
		ClassSectionID:  s.ClassSectionID,
		ParentSubjectID: nullString(s.ParentSubjectID),
		AdviserID:       nullString(adviserID),
		Title:           s.Title,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
	}
	if err := row.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableSubjects, s.ID, err.Error())
		return
	}

	r.countSaved(consts.TableSubjects)
}

func (r *run) processAssignedLoads(resp client.GetAssignedLoadsResp) {
	for _, cs := range resp.ClassSections {
		r.processClassSection(cs)
	}

	// parent subjects first so child subjects find their parent row
	for _, s := range resp.Subjects {
		if s.ParentSubjectID == "" {
			r.processSubject(s)
		}
	}
	for _, s := range resp.Subjects {
		if s.ParentSubjectID != "" {
			r.processSubject(s)
		}
	}
}

// AssignedLoads downloads the class sections and subjects assigned to the
// signed-in user, along with any institutions and advisers embedded in them.
func AssignedLoads(ctx context.AppCtx) (Result, error) {
	if err := checkSession(ctx); err != nil {
		return Result{}, err
	}

	r := newRun(ctx)

	resp, err := client.GetAssignedLoads(ctx)
	empty, err := classifyFetchErr(err)
	if err != nil {
		return Result{}, err
	}
	if empty {
		return r.result, nil
	}

	r.processAssignedLoads(resp)

	return r.result, nil
}

// Institution downloads the institution the signed-in user belongs to
func Institution(ctx context.AppCtx) (Result, error) {
	if err := checkSession(ctx); err != nil {
		return Result{}, err
	}

	r := newRun(ctx)

	resp, err := client.GetInstitution(ctx)
	empty, err := classifyFetchErr(err)
	if err != nil {
		return Result{}, err
	}
	if empty {
		return r.result, nil
	}

	r.saveInstitution(respToInstitution(resp.Institution))

	return r.result, nil
}

func (r *run) processEnrollment(e client.RespEnrollment, classSectionID string) {
	if e.Student.IsEmbedded() {
		r.saveStudent(respToStudent(*e.Student.Student))
	}

	if !r.markSeen(consts.TableStudentSections, e.ID) {
		return
	}

	r.countTotal(consts.TableStudentSections)

	if ok := r.requireParent(consts.TableStudentSections, e.ID, func() (bool, error) {
		return database.StudentExists(r.ctx.DB, e.Student.ID)
	}, consts.TableStudents, e.Student.ID); !ok {
		return
	}
	if ok := r.requireParent(consts.TableStudentSections, e.ID, func() (bool, error) {
		return database.ClassSectionExists(r.ctx.DB, classSectionID)
	}, consts.TableClassSections, classSectionID); !ok {
		return
	}

	row := database.StudentSection{
		ID:             e.ID,
		StudentID:      e.Student.ID,
		ClassSectionID: classSectionID,
		AcademicYear:   e.AcademicYear,
	}
	if err := row.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableStudentSections, e.ID, err.Error())
		return
	}

	r.countSaved(consts.TableStudentSections)
}

// ClassSectionStudents downloads the roster of a class section: the students
// and their enrollment rows.
func ClassSectionStudents(ctx context.AppCtx, classSectionID string) (Result, error) {
	if err := checkSession(ctx); err != nil {
		return Result{}, err
	}

	r := newRun(ctx)

	resp, err := client.GetClassSectionStudents(ctx, classSectionID)
	empty, err := classifyFetchErr(err)
	if err != nil {
		return Result{}, err
	}
	if empty {
		return r.result, nil
	}

	for _, e := range resp.Enrollments {
		r.processEnrollment(e, classSectionID)
	}

	return r.result, nil
}

func (r *run) processScore(score client.RespScore, itemID string) {
	if score.Student.IsEmbedded() {
		r.saveStudent(respToStudent(*score.Student.Student))
	}

	if !r.markSeen(consts.TableStudentEcrItemScores, score.ID) {
		return
	}

	r.countTotal(consts.TableStudentEcrItemScores)

	if ok := r.requireParent(consts.TableStudentEcrItemScores, score.ID, func() (bool, error) {
		return database.StudentExists(r.ctx.DB, score.Student.ID)
	}, consts.TableStudents, score.Student.ID); !ok {
		return
	}

	row := database.StudentEcrItemScore{
		ID:               score.ID,
		StudentID:        score.Student.ID,
		SubjectEcrItemID: itemID,
		Score:            score.Score,
	}
	if err := row.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableStudentEcrItemScores, score.ID, err.Error())
		return
	}

	r.countSaved(consts.TableStudentEcrItemScores)
}

func (r *run) processEcrItem(item client.RespSubjectEcrItem, ecrID string) {
	if !r.markSeen(consts.TableSubjectEcrItems, item.ID) {
		return
	}

	r.countTotal(consts.TableSubjectEcrItems)

	row := database.SubjectEcrItem{
		ID:           item.ID,
		SubjectEcrID: ecrID,
		Title:        item.Title,
		TotalItems:   item.TotalItems,
		Quarter:      item.Quarter,
	}
	if err := row.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableSubjectEcrItems, item.ID, err.Error())
		return
	}

	r.countSaved(consts.TableSubjectEcrItems)

	for _, score := range item.Scores {
		r.processScore(score, item.ID)
	}
}

func (r *run) processEcr(ecr client.RespSubjectEcr, subjectID string) {
	if !r.markSeen(consts.TableSubjectEcrs, ecr.ID) {
		return
	}

	r.countTotal(consts.TableSubjectEcrs)

	if ok := r.requireParent(consts.TableSubjectEcrs, ecr.ID, func() (bool, error) {
		return database.SubjectExists(r.ctx.DB, subjectID)
	}, consts.TableSubjects, subjectID); !ok {
		return
	}

	row := database.SubjectEcr{
		ID:         ecr.ID,
		SubjectID:  subjectID,
		Title:      ecr.Title,
		Percentage: ecr.Percentage,
		Quarter:    ecr.Quarter,
	}
	if err := row.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableSubjectEcrs, ecr.ID, err.Error())
		return
	}

	r.countSaved(consts.TableSubjectEcrs)

	for _, item := range ecr.Items {
		r.processEcrItem(item, ecr.ID)
	}
}

// EcrTree downloads the full class record of a subject: grading components,
// their items, and student scores. Children of a component that could not be
// saved are not attempted.
func EcrTree(ctx context.AppCtx, subjectID string) (Result, error) {
	if err := checkSession(ctx); err != nil {
		return Result{}, err
	}

	r := newRun(ctx)

	resp, err := client.GetEcrTree(ctx, subjectID)
	empty, err := classifyFetchErr(err)
	if err != nil {
		return Result{}, err
	}
	if empty {
		return r.result, nil
	}

	for _, ecr := range resp.Ecrs {
		r.processEcr(ecr, subjectID)
	}

	return r.result, nil
}

func (r *run) processRunningGrade(g client.RespRunningGrade, subjectID string) {
	if g.Student.IsEmbedded() {
		r.saveStudent(respToStudent(*g.Student.Student))
	}

	if !r.markSeen(consts.TableStudentRunningGrades, g.ID) {
		return
	}

	r.countTotal(consts.TableStudentRunningGrades)

	if g.SubjectID != "" {
		subjectID = g.SubjectID
	}

	if ok := r.requireParent(consts.TableStudentRunningGrades, g.ID, func() (bool, error) {
		return database.StudentExists(r.ctx.DB, g.Student.ID)
	}, consts.TableStudents, g.Student.ID); !ok {
		return
	}
	if ok := r.requireParent(consts.TableStudentRunningGrades, g.ID, func() (bool, error) {
		return database.SubjectExists(r.ctx.DB, subjectID)
	}, consts.TableSubjects, subjectID); !ok {
		return
	}

	var finalGrade sql.NullFloat64
	if g.FinalGrade != nil {
		finalGrade = sql.NullFloat64{Float64: *g.FinalGrade, Valid: true}
	}

	row := database.StudentRunningGrade{
		ID:         g.ID,
		StudentID:  g.Student.ID,
		SubjectID:  subjectID,
		Quarter:    g.Quarter,
		Grade:      g.Grade,
		FinalGrade: finalGrade,
	}
	if err := row.Upsert(r.ctx.DB); err != nil {
		r.skip(consts.TableStudentRunningGrades, g.ID, err.Error())
		return
	}

	r.countSaved(consts.TableStudentRunningGrades)
}

// RunningGrades downloads the computed quarterly grades of a subject
func RunningGrades(ctx context.AppCtx, subjectID string) (Result, error) {
	if err := checkSession(ctx); err != nil {
		return Result{}, err
	}

	r := newRun(ctx)

	resp, err := client.GetRunningGrades(ctx, subjectID)
	empty, err := classifyFetchErr(err)
	if err != nil {
		return Result{}, err
	}
	if empty {
		return r.result, nil
	}

	for _, g := range resp.RunningGrades {
		r.processRunningGrade(g, subjectID)
	}

	return r.result, nil
}

// All runs the full download: institution, assigned loads, then rosters,
// class records and running grades for every assigned section and subject.
// A failing sub-scope is recorded and the remaining scopes still run, except
// for expired authentication which aborts immediately. On completion the
// last download time is recorded in the system table.
func All(ctx context.AppCtx) (Result, error) {
	if err := checkSession(ctx); err != nil {
		return Result{}, err
	}

	total := Result{Success: true, Counts: map[string]Count{}}

	res, err := Institution(ctx)
	if err != nil {
		return total, err
	}
	total.merge(res)

	loadsResp, err := client.GetAssignedLoads(ctx)
	empty, err := classifyFetchErr(err)
	if err != nil {
		return total, err
	}

	r := newRun(ctx)
	if !empty {
		r.processAssignedLoads(loadsResp)
	}
	total.merge(r.result)

	if !empty {
		for _, cs := range loadsResp.ClassSections {
			res, err := ClassSectionStudents(ctx, cs.ID)
			if err == ErrAuthExpired {
				return total, err
			} else if err != nil {
				total.Success = false
				total.Errors = append(total.Errors, ItemError{Entity: consts.TableClassSections, ID: cs.ID, Reason: err.Error()})
				continue
			}

			total.merge(res)
		}

		for _, s := range loadsResp.Subjects {
			res, err := EcrTree(ctx, s.ID)
			if err == ErrAuthExpired {
				return total, err
			} else if err != nil {
				total.Success = false
				total.Errors = append(total.Errors, ItemError{Entity: consts.TableSubjects, ID: s.ID, Reason: err.Error()})
				continue
			}
			total.merge(res)

			res, err = RunningGrades(ctx, s.ID)
			if err == ErrAuthExpired {
				return total, err
			} else if err != nil {
				total.Success = false
				total.Errors = append(total.Errors, ItemError{Entity: consts.TableSubjects, ID: s.ID, Reason: err.Error()})
				continue
			}
			total.merge(res)
		}
	}

	now := ctx.Clock.Now().UTC().Format(time.RFC3339)
	if err := database.UpsertSystem(ctx.DB, consts.SystemLastDownloadAt, now); err != nil {
		total.Success = false
		total.Errors = append(total.Errors, ItemError{Entity: "system", ID: consts.SystemLastDownloadAt, Reason: err.Error()})
	}

	return total, nil
}
