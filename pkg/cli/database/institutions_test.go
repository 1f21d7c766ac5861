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

func TestInstitutionUpsert(t *testing.T) {
	db := InitTestMemoryDB(t)

	i := Institution{
		ID:       "inst-1",
		Title:    "Sunrise Elementary",
		Address:  "123 Main St",
		Division: "Division A",
		Region:   "Region 1",
		GovID:    "gov-100",
		Logo:     "logo.png",
	}
	if err := i.Upsert(db); err != nil {
		t.Fatal(err, "upserting institution")
	}

	got, err := GetInstitution(db, "inst-1")
	if err != nil {
		t.Fatal(err, "getting institution")
	}
	assert.DeepEqual(t, got, i, "institution mismatch")
}

func TestInstitutionUpsertIdempotent(t *testing.T) {
	db := InitTestMemoryDB(t)

	i := Institution{ID: "inst-1", Title: "Sunrise Elementary"}
	if err := i.Upsert(db); err != nil {
		t.Fatal(err, "upserting institution")
	}

	i.Title = "Sunset Elementary"
	if err := i.Upsert(db); err != nil {
		t.Fatal(err, "upserting institution again")
	}

	var count int
	MustScan(t, "counting institutions", db.QueryRow("SELECT count(*) FROM institutions"), &count)
	assert.Equal(t, count, 1, "institution count mismatch")

	got, err := GetInstitution(db, "inst-1")
	if err != nil {
		t.Fatal(err, "getting institution")
	}
	assert.Equal(t, got.Title, "Sunset Elementary", "title mismatch")
}

func TestGetInstitutionNotFound(t *testing.T) {
	db := InitTestMemoryDB(t)

	_, err := GetInstitution(db, "no-such-id")
	assert.Equal(t, err, ErrNotFound, "error mismatch")
}

func TestClearInstitutions(t *testing.T) {
	db := InitTestMemoryDB(t)

	MustUpsertInstitution(t, db, "inst-1", "Sunrise Elementary")
	MustUpsertInstitution(t, db, "inst-2", "Sunset Elementary")

	if err := ClearInstitutions(db); err != nil {
		t.Fatal(err, "clearing institutions")
	}

	var count int
	MustScan(t, "counting institutions", db.QueryRow("SELECT count(*) FROM institutions"), &count)
	assert.Equal(t, count, 0, "institution count mismatch")
}
