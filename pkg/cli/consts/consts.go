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

// Package consts provides definitions of constants
package consts

var (
	// AppDirName is the name of the directory containing scholastic files
	AppDirName = "scholastic"
	// DBFileName is a filename for the scholastic SQLite database
	DBFileName = "scholastic.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "scholasticrc"

	// SystemCurrentUserID is the key for the id of the signed-in user in the system table
	SystemCurrentUserID = "current_user_id"
	// SystemLastDownloadAt is the timestamp of the last completed download
	SystemLastDownloadAt = "last_download_at"
)

// Names of the tables mirroring remote entities. Queue entries refer to
// these names verbatim.
var (
	TableInstitutions         = "institutions"
	TableUsers                = "users"
	TableClassSections        = "class_sections"
	TableSubjects             = "subjects"
	TableStudents             = "students"
	TableStudentSections      = "student_sections"
	TableSubjectEcrs          = "subject_ecrs"
	TableSubjectEcrItems      = "subject_ecr_items"
	TableStudentEcrItemScores = "student_ecr_item_scores"
	TableStudentRunningGrades = "student_running_grades"
)

// Sync queue entry statuses
var (
	QueueStatusPending = "pending"
	QueueStatusSyncing = "syncing"
	QueueStatusFailed  = "failed"
)

// Sync queue operation kinds
var (
	QueueOpInsert = "insert"
	QueueOpUpdate = "update"
	QueueOpDelete = "delete"
)

// Sync log statuses
var (
	SyncLogStatusInProgress = "in_progress"
	SyncLogStatusCompleted  = "completed"
	SyncLogStatusFailed     = "failed"
)

// Sync log directions
var (
	SyncDirectionDownload = "download"
	SyncDirectionUpload   = "upload"
)

// Sync log run types
var (
	SyncTypeFull  = "full"
	SyncTypeQueue = "queue"
)
