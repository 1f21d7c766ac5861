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

// Upsert writes the user. On conflict every column is overwritten except the
// token fields, which are retained when the incoming value is null so that a
// refreshed profile payload cannot wipe a locally held credential.
func (u User) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO users (id, first_name, middle_name, last_name, email, role, token, token_expiry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			middle_name = excluded.middle_name,
			last_name = excluded.last_name,
			email = excluded.email,
			role = excluded.role,
			token = COALESCE(excluded.token, users.token),
			token_expiry = COALESCE(excluded.token_expiry, users.token_expiry)`,
		u.ID, u.FirstName, u.MiddleName, u.LastName, u.Email, u.Role, u.Token, u.TokenExpiry)
	if err != nil {
		return errors.Wrapf(err, "upserting user %s", u.ID)
	}

	return nil
}

// UpdateToken stores the session credential for the user
func (u User) UpdateToken(db *DB, token, expiry string) error {
	_, err := db.Exec("UPDATE users SET token = ?, token_expiry = ? WHERE id = ?", token, expiry, u.ID)
	if err != nil {
		return errors.Wrapf(err, "updating token for user %s", u.ID)
	}

	return nil
}

// ClearToken removes the session credential for the user
func (u User) ClearToken(db *DB) error {
	_, err := db.Exec("UPDATE users SET token = NULL, token_expiry = NULL WHERE id = ?", u.ID)
	if err != nil {
		return errors.Wrapf(err, "clearing token for user %s", u.ID)
	}

	return nil
}

// GetUser finds a user by id
func GetUser(db *DB, id string) (User, error) {
	var ret User

	err := db.QueryRow("SELECT id, first_name, middle_name, last_name, email, role, token, token_expiry FROM users WHERE id = ?", id).
		Scan(&ret.ID, &ret.FirstName, &ret.MiddleName, &ret.LastName, &ret.Email, &ret.Role, &ret.Token, &ret.TokenExpiry)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding user %s", id)
	}

	return ret, nil
}

// GetAllUsers returns all cached users
func GetAllUsers(db *DB) ([]User, error) {
	rows, err := db.Query("SELECT id, first_name, middle_name, last_name, email, role, token, token_expiry FROM users ORDER BY last_name, first_name")
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	defer rows.Close()

	var ret []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.MiddleName, &u.LastName, &u.Email, &u.Role, &u.Token, &u.TokenExpiry); err != nil {
			return nil, errors.Wrap(err, "scanning a user")
		}

		ret = append(ret, u)
	}

	return ret, rows.Err()
}

// UserExists checks if a user with the given id is cached locally
func UserExists(db *DB, id string) (bool, error) {
	return exists(db, "SELECT count(*) FROM users WHERE id = ?", id)
}

// ClearUsers deletes all cached users. Used only by explicit cache reset.
func ClearUsers(db *DB) error {
	if _, err := db.Exec("DELETE FROM users"); err != nil {
		return errors.Wrap(err, "clearing users")
	}

	return nil
}
