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

// Package synclog provides an append-only audit of sync runs. It exists for
// observability only; sync logic never reads it.
package synclog

import (
	"database/sql"
	"time"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/utils"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/clock"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when no run matches
var ErrNotFound = errors.New("sync run not found")

// Run is one recorded sync run
type Run struct {
	ID           string
	SyncType     string
	Direction    string
	Status       string
	ItemsTotal   int
	ItemsSuccess int
	ItemsFailed  int
	ErrorMessage string
	StartedAt    string
	CompletedAt  sql.NullString
}

func timestamp(c clock.Clock) string {
	return c.Now().UTC().Format(time.RFC3339)
}

// CreateRun opens a run in status in_progress. The run is mutated only by
// its owner until completion or failure.
func CreateRun(db *database.DB, c clock.Clock, syncType, direction string) (Run, error) {
	id, err := utils.GenerateUUID()
	if err != nil {
		return Run{}, errors.Wrap(err, "generating run id")
	}

	if _, err := db.Exec(`INSERT INTO sync_log (id, sync_type, direction, status, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, syncType, direction, consts.SyncLogStatusInProgress, timestamp(c)); err != nil {
		return Run{}, errors.Wrapf(err, "inserting sync run for %s %s", syncType, direction)
	}

	return GetRun(db, id)
}

// GetRun finds a run by id
func GetRun(db *database.DB, id string) (Run, error) {
	var ret Run

	err := db.QueryRow(`SELECT id, sync_type, direction, status, items_total, items_success, items_failed, error_message, started_at, completed_at
		FROM sync_log WHERE id = ?`, id).
		Scan(&ret.ID, &ret.SyncType, &ret.Direction, &ret.Status, &ret.ItemsTotal, &ret.ItemsSuccess, &ret.ItemsFailed, &ret.ErrorMessage, &ret.StartedAt, &ret.CompletedAt)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding sync run %s", id)
	}

	return ret, nil
}

// UpdateCounts records the item tallies of a run in progress
func UpdateCounts(db *database.DB, id string, total, success, failed int) error {
	if _, err := db.Exec("UPDATE sync_log SET items_total = ?, items_success = ?, items_failed = ? WHERE id = ?",
		total, success, failed, id); err != nil {
		return errors.Wrapf(err, "updating counts of sync run %s", id)
	}

	return nil
}

// Complete closes out a run as completed
func Complete(db *database.DB, c clock.Clock, id string, success, failed int) error {
	if _, err := db.Exec("UPDATE sync_log SET status = ?, items_success = ?, items_failed = ?, completed_at = ? WHERE id = ?",
		consts.SyncLogStatusCompleted, success, failed, timestamp(c), id); err != nil {
		return errors.Wrapf(err, "completing sync run %s", id)
	}

	return nil
}

// Fail closes out a run as failed with the given message
func Fail(db *database.DB, c clock.Clock, id, message string) error {
	if _, err := db.Exec("UPDATE sync_log SET status = ?, error_message = ?, completed_at = ? WHERE id = ?",
		consts.SyncLogStatusFailed, message, timestamp(c), id); err != nil {
		return errors.Wrapf(err, "failing sync run %s", id)
	}

	return nil
}

// LastCompletedRun returns the most recent completed run of the given type
// and direction. It backs "sync since last success" indicators.
func LastCompletedRun(db *database.DB, syncType, direction string) (Run, error) {
	var ret Run

	err := db.QueryRow(`SELECT id, sync_type, direction, status, items_total, items_success, items_failed, error_message, started_at, completed_at
		FROM sync_log
		WHERE sync_type = ? AND direction = ? AND status = ?
		ORDER BY completed_at DESC LIMIT 1`,
		syncType, direction, consts.SyncLogStatusCompleted).
		Scan(&ret.ID, &ret.SyncType, &ret.Direction, &ret.Status, &ret.ItemsTotal, &ret.ItemsSuccess, &ret.ItemsFailed, &ret.ErrorMessage, &ret.StartedAt, &ret.CompletedAt)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding last completed run for %s %s", syncType, direction)
	}

	return ret, nil
}

// ListRuns returns runs most recent first, up to the given limit
func ListRuns(db *database.DB, limit int) ([]Run, error) {
	rows, err := db.Query(`SELECT id, sync_type, direction, status, items_total, items_success, items_failed, error_message, started_at, completed_at
		FROM sync_log ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying sync runs")
	}
	defer rows.Close()

	var ret []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.SyncType, &r.Direction, &r.Status, &r.ItemsTotal, &r.ItemsSuccess, &r.ItemsFailed, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a sync run")
		}

		ret = append(ret, r)
	}

	return ret, rows.Err()
}

// Prune deletes all but the most recent keep runs. It is never triggered
// automatically.
func Prune(db *database.DB, keep int) error {
	if _, err := db.Exec(`DELETE FROM sync_log WHERE id NOT IN
		(SELECT id FROM sync_log ORDER BY started_at DESC LIMIT ?)`, keep); err != nil {
		return errors.Wrap(err, "pruning sync log")
	}

	return nil
}
