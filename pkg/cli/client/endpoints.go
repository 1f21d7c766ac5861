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

package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/pkg/errors"
)

// RespUser is a user in a response payload
type RespUser struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// RespInstitution is an institution in a response payload
type RespInstitution struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Address  string `json:"address"`
	Division string `json:"division"`
	Region   string `json:"region"`
	GovID    string `json:"gov_id"`
	Logo     string `json:"logo"`
}

// RespStudent is a student in a response payload
type RespStudent struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	ExtName    string `json:"ext_name"`
	Birthdate  string `json:"birthdate"`
	Gender     string `json:"gender"`
	LRN        string `json:"lrn"`
}

// RespClassSection is a class section in a response payload. Institution and
// Adviser may arrive embedded or as bare id references.
type RespClassSection struct {
	ID           string         `json:"id"`
	Institution  InstitutionRef `json:"institution"`
	Adviser      *UserRef       `json:"adviser"`
	Title        string         `json:"title"`
	GradeLevel   string         `json:"grade_level"`
	AcademicYear string         `json:"academic_year"`
}

// RespSubject is a subject in a response payload
type RespSubject struct {
	ID              string   `json:"id"`
	InstitutionID   string   `json:"institution_id"`
	ClassSectionID  string   `json:"class_section_id"`
	ParentSubjectID string   `json:"parent_subject_id"`
	Adviser         *UserRef `json:"adviser"`
	Title           string   `json:"title"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
}

// GetAssignedLoadsResp is the response from the assigned loads endpoint. It
// holds the class sections and subjects assigned to the signed-in user.
type GetAssignedLoadsResp struct {
	ClassSections []RespClassSection `json:"class_sections"`
	Subjects      []RespSubject      `json:"subjects"`
}

// GetAssignedLoads gets the teaching loads assigned to the current user
func GetAssignedLoads(ctx context.AppCtx) (GetAssignedLoadsResp, error) {
	var ret GetAssignedLoadsResp

	res, err := doAuthorizedReq(ctx, "GET", "/v1/assigned-loads", "")
	if err != nil {
		return ret, err
	}

	if err := decodeBody(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding assigned loads")
	}

	return ret, nil
}

// GetInstitutionResp is the response from the institution endpoint
type GetInstitutionResp struct {
	Institution RespInstitution `json:"institution"`
}

// GetInstitution gets the institution the current user belongs to
func GetInstitution(ctx context.AppCtx) (GetInstitutionResp, error) {
	var ret GetInstitutionResp

	res, err := doAuthorizedReq(ctx, "GET", "/v1/institutions/current", "")
	if err != nil {
		return ret, err
	}

	if err := decodeBody(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding institution")
	}

	return ret, nil
}

// RespEnrollment is a student's enrollment in a class section. Student may
// arrive embedded or as a bare id reference.
type RespEnrollment struct {
	ID           string     `json:"id"`
	Student      StudentRef `json:"student"`
	AcademicYear string     `json:"academic_year"`
}

// GetClassSectionStudentsResp is the response from the class section
// students endpoint
type GetClassSectionStudentsResp struct {
	Enrollments []RespEnrollment `json:"students"`
}

// GetClassSectionStudents gets the students enrolled in a class section
func GetClassSectionStudents(ctx context.AppCtx, classSectionID string) (GetClassSectionStudentsResp, error) {
	var ret GetClassSectionStudentsResp

	path := fmt.Sprintf("/v1/class-sections/%s/students", classSectionID)
	res, err := doAuthorizedReq(ctx, "GET", path, "")
	if err != nil {
		return ret, err
	}

	if err := decodeBody(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding class section students")
	}

	return ret, nil
}

// RespScore is a student's score on an ECR item
type RespScore struct {
	ID      string     `json:"id"`
	Student StudentRef `json:"student"`
	Score   float64    `json:"score"`
}

// RespSubjectEcrItem is a scored activity under an ECR component
type RespSubjectEcrItem struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	TotalItems int         `json:"total_items"`
	Quarter    string      `json:"quarter"`
	Scores     []RespScore `json:"scores"`
}

// RespSubjectEcr is a grading component of a subject's class record
type RespSubjectEcr struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Percentage float64              `json:"percentage"`
	Quarter    string               `json:"quarter"`
	Items      []RespSubjectEcrItem `json:"items"`
}

// GetEcrTreeResp is the response from the ECR tree endpoint
type GetEcrTreeResp struct {
	Ecrs []RespSubjectEcr `json:"ecrs"`
}

// GetEcrTree gets the full class record tree of a subject: components,
// items and scores.
func GetEcrTree(ctx context.AppCtx, subjectID string) (GetEcrTreeResp, error) {
	var ret GetEcrTreeResp

	path := fmt.Sprintf("/v1/subjects/%s/ecr", subjectID)
	res, err := doAuthorizedReq(ctx, "GET", path, "")
	if err != nil {
		return ret, err
	}

	if err := decodeBody(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding ecr tree")
	}

	return ret, nil
}

// RespRunningGrade is a computed quarterly grade
type RespRunningGrade struct {
	ID         string     `json:"id"`
	Student    StudentRef `json:"student"`
	SubjectID  string     `json:"subject_id"`
	Quarter    string     `json:"quarter"`
	Grade      float64    `json:"grade"`
	FinalGrade *float64   `json:"final_grade"`
}

// GetRunningGradesResp is the response from the running grades endpoint
type GetRunningGradesResp struct {
	RunningGrades []RespRunningGrade `json:"running_grades"`
}

// GetRunningGrades gets the running grades recorded for a subject
func GetRunningGrades(ctx context.AppCtx, subjectID string) (GetRunningGradesResp, error) {
	var ret GetRunningGradesResp

	path := fmt.Sprintf("/v1/subjects/%s/running-grades", subjectID)
	res, err := doAuthorizedReq(ctx, "GET", path, "")
	if err != nil {
		return ret, err
	}

	if err := decodeBody(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding running grades")
	}

	return ret, nil
}

// SigninPayload is a payload for the signin endpoint
type SigninPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninResponse is a response from the signin endpoint
type SigninResponse struct {
	User      RespUser `json:"user"`
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
}

// Signin requests a session token
func Signin(ctx context.AppCtx, email, password string) (SigninResponse, error) {
	payload := SigninPayload{
		Email:    email,
		Password: password,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return SigninResponse{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doReq(ctx, "POST", "/v1/signin", string(b))
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
			return SigninResponse{}, ErrInvalidLogin
		}
		return SigninResponse{}, errors.Wrap(err, "making http request")
	}

	var resp SigninResponse
	if err := decodeBody(res, &resp); err != nil {
		return SigninResponse{}, errors.Wrap(err, "decoding signin response")
	}

	return resp, nil
}

// Signout deletes a user session on the server side
func Signout(ctx context.AppCtx) error {
	if _, err := doAuthorizedReq(ctx, "POST", "/v1/signout", ""); err != nil {
		return errors.Wrap(err, "making http request")
	}

	return nil
}

// MutationPayload is a locally-originated mutation delivered to the remote
// system during an upload run
type MutationPayload struct {
	Table     string          `json:"table"`
	RecordID  string          `json:"record_id"`
	Operation string          `json:"operation"`
	Payload   json.RawMessage `json:"payload"`
}

// DeliverMutation delivers a queued local mutation to the remote system
func DeliverMutation(ctx context.AppCtx, m MutationPayload) error {
	b, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshaling mutation")
	}

	if _, err := doAuthorizedReq(ctx, "POST", "/v1/sync/mutations", string(b)); err != nil {
		return err
	}

	return nil
}
