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

// schemaSQL is additive only. Every statement is a no-op when the object
// already exists, so InitSchema is safe to run at every startup.
var schemaSQL = `
CREATE TABLE IF NOT EXISTS system
(
	key text NOT NULL,
	value text NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_system_key ON system(key);

CREATE TABLE IF NOT EXISTS institutions
(
	id text PRIMARY KEY,
	title text NOT NULL,
	address text NOT NULL DEFAULT '',
	division text NOT NULL DEFAULT '',
	region text NOT NULL DEFAULT '',
	gov_id text NOT NULL DEFAULT '',
	logo text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users
(
	id text PRIMARY KEY,
	first_name text NOT NULL DEFAULT '',
	middle_name text NOT NULL DEFAULT '',
	last_name text NOT NULL DEFAULT '',
	email text NOT NULL DEFAULT '',
	role text NOT NULL DEFAULT '',
	token text,
	token_expiry text
);

CREATE TABLE IF NOT EXISTS class_sections
(
	id text PRIMARY KEY,
	institution_id text NOT NULL REFERENCES institutions(id),
	adviser_id text REFERENCES users(id),
	title text NOT NULL,
	grade_level text NOT NULL DEFAULT '',
	academic_year text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_class_sections_institution ON class_sections(institution_id);

CREATE TABLE IF NOT EXISTS subjects
(
	id text PRIMARY KEY,
	institution_id text NOT NULL REFERENCES institutions(id),
	class_section_id text NOT NULL REFERENCES class_sections(id),
	parent_subject_id text REFERENCES subjects(id),
	adviser_id text REFERENCES users(id),
	title text NOT NULL,
	start_time text NOT NULL DEFAULT '',
	end_time text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_subjects_class_section ON subjects(class_section_id);

CREATE TABLE IF NOT EXISTS students
(
	id text PRIMARY KEY,
	first_name text NOT NULL DEFAULT '',
	middle_name text NOT NULL DEFAULT '',
	last_name text NOT NULL DEFAULT '',
	ext_name text NOT NULL DEFAULT '',
	birthdate text NOT NULL DEFAULT '',
	gender text NOT NULL DEFAULT '',
	lrn text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS student_sections
(
	id text PRIMARY KEY,
	student_id text NOT NULL REFERENCES students(id),
	class_section_id text NOT NULL REFERENCES class_sections(id),
	academic_year text NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_student_sections_enrollment
	ON student_sections(student_id, class_section_id, academic_year);
CREATE INDEX IF NOT EXISTS idx_student_sections_class_section ON student_sections(class_section_id);

CREATE TABLE IF NOT EXISTS subject_ecrs
(
	id text PRIMARY KEY,
	subject_id text NOT NULL REFERENCES subjects(id),
	title text NOT NULL,
	percentage real NOT NULL DEFAULT 0,
	quarter text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_subject_ecrs_subject ON subject_ecrs(subject_id);

CREATE TABLE IF NOT EXISTS subject_ecr_items
(
	id text PRIMARY KEY,
	subject_ecr_id text NOT NULL REFERENCES subject_ecrs(id),
	title text NOT NULL,
	total_items integer NOT NULL DEFAULT 0,
	quarter text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_subject_ecr_items_ecr ON subject_ecr_items(subject_ecr_id);

CREATE TABLE IF NOT EXISTS student_ecr_item_scores
(
	id text PRIMARY KEY,
	student_id text NOT NULL REFERENCES students(id),
	subject_ecr_item_id text NOT NULL REFERENCES subject_ecr_items(id),
	score real NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_student_ecr_item_scores_entry
	ON student_ecr_item_scores(student_id, subject_ecr_item_id);

CREATE TABLE IF NOT EXISTS student_running_grades
(
	id text PRIMARY KEY,
	student_id text NOT NULL REFERENCES students(id),
	subject_id text NOT NULL REFERENCES subjects(id),
	quarter text NOT NULL DEFAULT '',
	grade real NOT NULL DEFAULT 0,
	final_grade real
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_student_running_grades_entry
	ON student_running_grades(student_id, subject_id, quarter);

CREATE TABLE IF NOT EXISTS sync_queue
(
	id text PRIMARY KEY,
	table_name text NOT NULL,
	record_id text NOT NULL,
	operation text NOT NULL,
	payload text NOT NULL,
	status text NOT NULL DEFAULT 'pending',
	error_message text NOT NULL DEFAULT '',
	retry_count integer NOT NULL DEFAULT 0,
	created_at text NOT NULL,
	updated_at text NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_queue_record ON sync_queue(table_name, record_id);
CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status);

CREATE TABLE IF NOT EXISTS sync_log
(
	id text PRIMARY KEY,
	sync_type text NOT NULL,
	direction text NOT NULL,
	status text NOT NULL DEFAULT 'in_progress',
	items_total integer NOT NULL DEFAULT 0,
	items_success integer NOT NULL DEFAULT 0,
	items_failed integer NOT NULL DEFAULT 0,
	error_message text NOT NULL DEFAULT '',
	started_at text NOT NULL,
	completed_at text
);
CREATE INDEX IF NOT EXISTS idx_sync_log_scope ON sync_log(sync_type, direction);
`

// InitSchema creates the local tables and indexes if they do not exist.
// It must run before any repository call.
func InitSchema(db *DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "creating schema")
	}

	return nil
}
