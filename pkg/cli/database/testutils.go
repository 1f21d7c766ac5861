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
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MustScan scans the given row and fails a test in case of any errors
func MustScan(t *testing.T, message string, row *sql.Row, args ...interface{}) {
	t.Helper()

	if err := row.Scan(args...); err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "scanning a row"), message))
	}
}

// MustExec executes the given SQL query and fails a test if an error occurs
func MustExec(t *testing.T, message string, db *DB, query string, args ...interface{}) sql.Result {
	t.Helper()

	result, err := db.Exec(query, args...)
	if err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "executing sql"), message))
	}

	return result
}

// InitTestMemoryDB initializes an in-memory test database with the schema applied
func InitTestMemoryDB(t *testing.T) *DB {
	t.Helper()

	name, err := uuid.NewRandom()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating test database name"))
	}

	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening in-memory database"))
	}

	if err := InitSchema(db); err != nil {
		t.Fatal(errors.Wrap(err, "initializing schema"))
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// MustUpsertInstitution inserts an institution fixture and fails the test on error
func MustUpsertInstitution(t *testing.T, db *DB, id, title string) Institution {
	t.Helper()

	i := Institution{ID: id, Title: title}
	if err := i.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting institution fixture"))
	}

	return i
}

// MustUpsertStudent inserts a student fixture and fails the test on error
func MustUpsertStudent(t *testing.T, db *DB, id, lastName string) Student {
	t.Helper()

	s := Student{ID: id, LastName: lastName}
	if err := s.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting student fixture"))
	}

	return s
}
