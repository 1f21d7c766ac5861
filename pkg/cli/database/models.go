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
)

// Institution is a school mirrored from the remote system
type Institution struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Address  string `json:"address"`
	Division string `json:"division"`
	Region   string `json:"region"`
	GovID    string `json:"gov_id"`
	Logo     string `json:"logo"`
}

// User is a staff member. Token holds the locally-issued session credential
// and is never part of remote payloads.
type User struct {
	ID          string         `json:"id"`
	FirstName   string         `json:"first_name"`
	MiddleName  string         `json:"middle_name"`
	LastName    string         `json:"last_name"`
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	Token       sql.NullString `json:"-"`
	TokenExpiry sql.NullString `json:"-"`
}

// ClassSection is a homeroom section belonging to an institution
type ClassSection struct {
	ID            string         `json:"id"`
	InstitutionID string         `json:"institution_id"`
	AdviserID     sql.NullString `json:"adviser_id"`
	Title         string         `json:"title"`
	GradeLevel    string         `json:"grade_level"`
	AcademicYear  string         `json:"academic_year"`
}

// Subject is a class taught in a class section. A subject may be a child
// of a parent subject (e.g. a MAPEH component).
type Subject struct {
	ID              string         `json:"id"`
	InstitutionID   string         `json:"institution_id"`
	ClassSectionID  string         `json:"class_section_id"`
	ParentSubjectID sql.NullString `json:"parent_subject_id"`
	AdviserID       sql.NullString `json:"adviser_id"`
	Title           string         `json:"title"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
}

// Student is a learner mirrored from the remote system
type Student struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	ExtName    string `json:"ext_name"`
	Birthdate  string `json:"birthdate"`
	Gender     string `json:"gender"`
	LRN        string `json:"lrn"`
}

// StudentSection is an enrollment of a student in a class section for an
// academic year. (student, section, academic year) is unique.
type StudentSection struct {
	ID             string `json:"id"`
	StudentID      string `json:"student_id"`
	ClassSectionID string `json:"class_section_id"`
	AcademicYear   string `json:"academic_year"`
}

// SubjectEcr is a grading component of an electronic class record,
// e.g. "Written Works" weighted at 30%.
type SubjectEcr struct {
	ID         string  `json:"id"`
	SubjectID  string  `json:"subject_id"`
	Title      string  `json:"title"`
	Percentage float64 `json:"percentage"`
	Quarter    string  `json:"quarter"`
}

// SubjectEcrItem is a scored activity under an ECR component
type SubjectEcrItem struct {
	ID           string `json:"id"`
	SubjectEcrID string `json:"subject_ecr_id"`
	Title        string `json:"title"`
	TotalItems   int    `json:"total_items"`
	Quarter      string `json:"quarter"`
}

// StudentEcrItemScore is a student's score on an ECR item.
// (student, item) is unique.
type StudentEcrItemScore struct {
	ID               string  `json:"id"`
	StudentID        string  `json:"student_id"`
	SubjectEcrItemID string  `json:"subject_ecr_item_id"`
	Score            float64 `json:"score"`
}

// StudentRunningGrade is a student's computed grade in a subject for a
// quarter. (student, subject, quarter) is unique.
type StudentRunningGrade struct {
	ID         string          `json:"id"`
	StudentID  string          `json:"student_id"`
	SubjectID  string          `json:"subject_id"`
	Quarter    string          `json:"quarter"`
	Grade      float64         `json:"grade"`
	FinalGrade sql.NullFloat64 `json:"final_grade"`
}
