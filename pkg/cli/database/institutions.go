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

	"github.com/pkg/errors"
)

// ErrNotFound is returned by lookups when no row matches
var ErrNotFound = errors.New("record not found")

func exists(db *DB, query string, args ...interface{}) (bool, error) {
	var count int
	if err := db.QueryRow(query, args...).Scan(&count); err != nil {
		return false, errors.Wrap(err, "counting rows")
	}

	return count > 0, nil
}

// Upsert writes the institution, overwriting every column on conflict
func (i Institution) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO institutions (id, title, address, division, region, gov_id, logo)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			address = excluded.address,
			division = excluded.division,
			region = excluded.region,
			gov_id = excluded.gov_id,
			logo = excluded.logo`,
		i.ID, i.Title, i.Address, i.Division, i.Region, i.GovID, i.Logo)
	if err != nil {
		return errors.Wrapf(err, "upserting institution %s", i.ID)
	}

	return nil
}

// GetInstitution finds an institution by id
func GetInstitution(db *DB, id string) (Institution, error) {
	var ret Institution

	err := db.QueryRow("SELECT id, title, address, division, region, gov_id, logo FROM institutions WHERE id = ?", id).
		Scan(&ret.ID, &ret.Title, &ret.Address, &ret.Division, &ret.Region, &ret.GovID, &ret.Logo)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding institution %s", id)
	}

	return ret, nil
}

// GetAllInstitutions returns all cached institutions
func GetAllInstitutions(db *DB) ([]Institution, error) {
	rows, err := db.Query("SELECT id, title, address, division, region, gov_id, logo FROM institutions ORDER BY title")
	if err != nil {
		return nil, errors.Wrap(err, "querying institutions")
	}
	defer rows.Close()

	var ret []Institution
	for rows.Next() {
		var i Institution
		if err := rows.Scan(&i.ID, &i.Title, &i.Address, &i.Division, &i.Region, &i.GovID, &i.Logo); err != nil {
			return nil, errors.Wrap(err, "scanning an institution")
		}

		ret = append(ret, i)
	}

	return ret, rows.Err()
}

// InstitutionExists checks if an institution with the given id is cached locally
func InstitutionExists(db *DB, id string) (bool, error) {
	return exists(db, "SELECT count(*) FROM institutions WHERE id = ?", id)
}

// ClearInstitutions deletes all cached institutions. Used only by explicit
// cache reset.
func ClearInstitutions(db *DB) error {
	if _, err := db.Exec("DELETE FROM institutions"); err != nil {
		return errors.Wrap(err, "clearing institutions")
	}

	return nil
}
