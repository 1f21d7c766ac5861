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

// Package syncqueue provides a durable, table-backed outbox of
// locally-originated mutations awaiting delivery to the remote system.
// Entries survive process restarts. At most one pending entry exists per
// (table, record) pair; repeated local edits coalesce into it.
package syncqueue

import (
	"database/sql"
	"time"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/utils"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/clock"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when no queue entry matches
var ErrNotFound = errors.New("queue entry not found")

// ErrInvalidTransition is returned when a status change is requested on an
// entry that is not in the expected state
var ErrInvalidTransition = errors.New("invalid queue status transition")

// Item is a queued local mutation
type Item struct {
	ID           string
	TableName    string
	RecordID     string
	Operation    string
	Payload      string
	Status       string
	ErrorMessage string
	RetryCount   int
	CreatedAt    string
	UpdatedAt    string
}

func timestamp(c clock.Clock) string {
	return c.Now().UTC().Format(time.RFC3339)
}

// Enqueue records a local mutation for later delivery. If a pending entry
// already exists for the same (table, record), its operation and payload are
// overwritten so repeated edits produce a single outbound mutation.
func Enqueue(db *database.DB, c clock.Clock, tableName, recordID, operation, payload string) (Item, error) {
	var existing Item

	now := timestamp(c)

	err := db.QueryRow("SELECT id, created_at, retry_count FROM sync_queue WHERE table_name = ? AND record_id = ? AND status = ?",
		tableName, recordID, consts.QueueStatusPending).Scan(&existing.ID, &existing.CreatedAt, &existing.RetryCount)
	if err != nil && err != sql.ErrNoRows {
		return Item{}, errors.Wrapf(err, "finding pending entry for %s %s", tableName, recordID)
	}

	if err == nil {
		if _, err := db.Exec("UPDATE sync_queue SET operation = ?, payload = ?, updated_at = ? WHERE id = ?",
			operation, payload, now, existing.ID); err != nil {
			return Item{}, errors.Wrapf(err, "merging into pending entry %s", existing.ID)
		}

		return Get(db, existing.ID)
	}

	id, err := utils.GenerateUUID()
	if err != nil {
		return Item{}, errors.Wrap(err, "generating queue entry id")
	}

	if _, err := db.Exec(`INSERT INTO sync_queue (id, table_name, record_id, operation, payload, status, error_message, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, '', 0, ?, ?)`,
		id, tableName, recordID, operation, payload, consts.QueueStatusPending, now, now); err != nil {
		return Item{}, errors.Wrapf(err, "inserting queue entry for %s %s", tableName, recordID)
	}

	return Get(db, id)
}

// Get finds a queue entry by id
func Get(db *database.DB, id string) (Item, error) {
	var ret Item

	err := db.QueryRow(`SELECT id, table_name, record_id, operation, payload, status, error_message, retry_count, created_at, updated_at
		FROM sync_queue WHERE id = ?`, id).
		Scan(&ret.ID, &ret.TableName, &ret.RecordID, &ret.Operation, &ret.Payload, &ret.Status, &ret.ErrorMessage, &ret.RetryCount, &ret.CreatedAt, &ret.UpdatedAt)
	if err == sql.ErrNoRows {
		return ret, ErrNotFound
	} else if err != nil {
		return ret, errors.Wrapf(err, "finding queue entry %s", id)
	}

	return ret, nil
}

func listByStatus(db *database.DB, tableName, status string) ([]Item, error) {
	query := `SELECT id, table_name, record_id, operation, payload, status, error_message, retry_count, created_at, updated_at
		FROM sync_queue WHERE status = ?`
	args := []interface{}{status}

	if tableName != "" {
		query += " AND table_name = ?"
		args = append(args, tableName)
	}

	// oldest first to preserve causal ordering of mutations
	query += " ORDER BY created_at ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s queue entries", status)
	}
	defer rows.Close()

	var ret []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.TableName, &i.RecordID, &i.Operation, &i.Payload, &i.Status, &i.ErrorMessage, &i.RetryCount, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a queue entry")
		}

		ret = append(ret, i)
	}

	return ret, rows.Err()
}

// ListPending returns pending entries, oldest first. An empty table name
// returns entries for all tables.
func ListPending(db *database.DB, tableName string) ([]Item, error) {
	return listByStatus(db, tableName, consts.QueueStatusPending)
}

// ListFailed returns failed entries, oldest first. An empty table name
// returns entries for all tables.
func ListFailed(db *database.DB, tableName string) ([]Item, error) {
	return listByStatus(db, tableName, consts.QueueStatusFailed)
}

// CountPending counts pending entries. An empty table name counts entries
// for all tables.
func CountPending(db *database.DB, tableName string) (int, error) {
	query := "SELECT count(*) FROM sync_queue WHERE status = ?"
	args := []interface{}{consts.QueueStatusPending}

	if tableName != "" {
		query += " AND table_name = ?"
		args = append(args, tableName)
	}

	var count int
	if err := db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "counting pending queue entries")
	}

	return count, nil
}

func transition(db *database.DB, id, from, to, now string) error {
	result, err := db.Exec("UPDATE sync_queue SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		to, now, id, from)
	if err != nil {
		return errors.Wrapf(err, "updating status of queue entry %s", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return errors.Wrapf(ErrInvalidTransition, "entry %s is not %s", id, from)
	}

	return nil
}

// MarkSyncing transitions a pending entry to syncing. Callers must ensure a
// single flush process handles a given entry at a time.
func MarkSyncing(db *database.DB, c clock.Clock, id string) error {
	return transition(db, id, consts.QueueStatusPending, consts.QueueStatusSyncing, timestamp(c))
}

// MarkSynced removes the entry entirely. Synced entries are not retained.
func MarkSynced(db *database.DB, id string) error {
	result, err := db.Exec("DELETE FROM sync_queue WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "deleting queue entry %s", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkFailed records a delivery failure. The retry count is left untouched
// for the caller to increment separately.
func MarkFailed(db *database.DB, c clock.Clock, id, message string) error {
	result, err := db.Exec("UPDATE sync_queue SET status = ?, error_message = ?, updated_at = ? WHERE id = ?",
		consts.QueueStatusFailed, message, timestamp(c), id)
	if err != nil {
		return errors.Wrapf(err, "marking queue entry %s failed", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementRetry bumps the retry count of an entry
func IncrementRetry(db *database.DB, c clock.Clock, id string) error {
	result, err := db.Exec("UPDATE sync_queue SET retry_count = retry_count + 1, updated_at = ? WHERE id = ?",
		timestamp(c), id)
	if err != nil {
		return errors.Wrapf(err, "incrementing retry count of queue entry %s", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// ResetFailed returns a failed entry to pending for another delivery
// attempt, clearing its error message. If a later local edit already queued
// a pending entry for the same (table, record), the failed entry carries a
// superseded payload and is deleted instead, so at most one pending entry
// exists per record.
func ResetFailed(db *database.DB, c clock.Clock, id string) error {
	item, err := Get(db, id)
	if err == ErrNotFound {
		return errors.Wrapf(ErrInvalidTransition, "entry %s is not failed", id)
	} else if err != nil {
		return err
	}
	if item.Status != consts.QueueStatusFailed {
		return errors.Wrapf(ErrInvalidTransition, "entry %s is not failed", id)
	}

	var pendingID string
	err = db.QueryRow("SELECT id FROM sync_queue WHERE table_name = ? AND record_id = ? AND status = ?",
		item.TableName, item.RecordID, consts.QueueStatusPending).Scan(&pendingID)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrapf(err, "finding pending entry for %s %s", item.TableName, item.RecordID)
	}
	if err == nil {
		if _, err := db.Exec("DELETE FROM sync_queue WHERE id = ?", id); err != nil {
			return errors.Wrapf(err, "deleting superseded queue entry %s", id)
		}

		return nil
	}

	if _, err := db.Exec("UPDATE sync_queue SET status = ?, error_message = '', updated_at = ? WHERE id = ?",
		consts.QueueStatusPending, timestamp(c), id); err != nil {
		return errors.Wrapf(err, "resetting queue entry %s", id)
	}

	return nil
}

// ReconcileStale reverts syncing entries back to pending. No entry should
// hold syncing across a process restart; a leftover one means a flush was
// interrupted. Returns the number of entries reverted.
func ReconcileStale(db *database.DB, c clock.Clock) (int, error) {
	result, err := db.Exec("UPDATE sync_queue SET status = ?, updated_at = ? WHERE status = ?",
		consts.QueueStatusPending, timestamp(c), consts.QueueStatusSyncing)
	if err != nil {
		return 0, errors.Wrap(err, "reverting stale syncing entries")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting affected rows")
	}

	return int(n), nil
}
