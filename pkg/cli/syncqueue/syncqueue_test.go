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

package syncqueue

import (
	"testing"
	"time"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/assert"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/clock"
	"github.com/pkg/errors"
)

func newTestClock(t *testing.T) *clock.Mock {
	t.Helper()

	c := &clock.Mock{}
	c.SetNow(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))

	return c
}

func mustEnqueue(t *testing.T, db *database.DB, c clock.Clock, tableName, recordID, operation, payload string) Item {
	t.Helper()

	item, err := Enqueue(db, c, tableName, recordID, operation, payload)
	if err != nil {
		t.Fatal(errors.Wrap(err, "enqueueing"))
	}

	return item
}

func TestEnqueue(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	item := mustEnqueue(t, db, c, consts.TableStudentEcrItemScores, "score-1", consts.QueueOpUpdate, `{"score": 18}`)

	assert.Equal(t, item.TableName, consts.TableStudentEcrItemScores, "table name mismatch")
	assert.Equal(t, item.RecordID, "score-1", "record id mismatch")
	assert.Equal(t, item.Operation, consts.QueueOpUpdate, "operation mismatch")
	assert.Equal(t, item.Payload, `{"score": 18}`, "payload mismatch")
	assert.Equal(t, item.Status, consts.QueueStatusPending, "status mismatch")
	assert.Equal(t, item.RetryCount, 0, "retry count mismatch")
	assert.Equal(t, item.CreatedAt, "2025-09-01T08:00:00Z", "created at mismatch")
}

func TestEnqueueCoalesces(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	first := mustEnqueue(t, db, c, consts.TableStudentEcrItemScores, "score-1", consts.QueueOpInsert, `{"score": 18}`)

	c.Advance(time.Minute)
	second := mustEnqueue(t, db, c, consts.TableStudentEcrItemScores, "score-1", consts.QueueOpUpdate, `{"score": 19}`)

	assert.Equal(t, second.ID, first.ID, "entry id mismatch")
	assert.Equal(t, second.Operation, consts.QueueOpUpdate, "operation mismatch")
	assert.Equal(t, second.Payload, `{"score": 19}`, "payload mismatch")
	assert.Equal(t, second.CreatedAt, first.CreatedAt, "created at mismatch")
	assert.Equal(t, second.UpdatedAt, "2025-09-01T08:01:00Z", "updated at mismatch")

	count, err := CountPending(db, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting pending"))
	}
	assert.Equal(t, count, 1, "pending count mismatch")
}

func TestEnqueueDistinctRecords(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	mustEnqueue(t, db, c, consts.TableStudentEcrItemScores, "score-1", consts.QueueOpUpdate, "{}")
	mustEnqueue(t, db, c, consts.TableStudentEcrItemScores, "score-2", consts.QueueOpUpdate, "{}")
	mustEnqueue(t, db, c, consts.TableStudentRunningGrades, "score-1", consts.QueueOpUpdate, "{}")

	count, err := CountPending(db, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting pending"))
	}
	assert.Equal(t, count, 3, "pending count mismatch")

	count, err = CountPending(db, consts.TableStudentRunningGrades)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting pending for table"))
	}
	assert.Equal(t, count, 1, "per-table pending count mismatch")
}

func TestListPendingOrder(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	first := mustEnqueue(t, db, c, consts.TableStudents, "student-1", consts.QueueOpUpdate, "{}")
	c.Advance(time.Second)
	second := mustEnqueue(t, db, c, consts.TableStudents, "student-2", consts.QueueOpUpdate, "{}")

	got, err := ListPending(db, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing pending"))
	}

	assert.Equal(t, len(got), 2, "pending length mismatch")
	assert.Equal(t, got[0].ID, first.ID, "first entry mismatch")
	assert.Equal(t, got[1].ID, second.ID, "second entry mismatch")
}

func TestMarkSyncing(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	item := mustEnqueue(t, db, c, consts.TableStudents, "student-1", consts.QueueOpUpdate, "{}")

	if err := MarkSyncing(db, c, item.ID); err != nil {
		t.Fatal(errors.Wrap(err, "marking syncing"))
	}

	got, err := Get(db, item.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting entry"))
	}
	assert.Equal(t, got.Status, consts.QueueStatusSyncing, "status mismatch")

	// claiming an already claimed entry must fail
	err = MarkSyncing(db, c, item.ID)
	assert.Equal(t, errors.Cause(err), ErrInvalidTransition, "error mismatch")
}

func TestMarkSynced(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	item := mustEnqueue(t, db, c, consts.TableStudents, "student-1", consts.QueueOpUpdate, "{}")

	if err := MarkSyncing(db, c, item.ID); err != nil {
		t.Fatal(errors.Wrap(err, "marking syncing"))
	}
	if err := MarkSynced(db, item.ID); err != nil {
		t.Fatal(errors.Wrap(err, "marking synced"))
	}

	_, err := Get(db, item.ID)
	assert.Equal(t, err, ErrNotFound, "entry should be deleted")
}

func TestMarkFailedAndRetry(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	item := mustEnqueue(t, db, c, consts.TableStudents, "student-1", consts.QueueOpUpdate, "{}")

	if err := MarkSyncing(db, c, item.ID); err != nil {
		t.Fatal(errors.Wrap(err, "marking syncing"))
	}
	if err := MarkFailed(db, c, item.ID, "connection refused"); err != nil {
		t.Fatal(errors.Wrap(err, "marking failed"))
	}
	if err := IncrementRetry(db, c, item.ID); err != nil {
		t.Fatal(errors.Wrap(err, "incrementing retry"))
	}

	got, err := Get(db, item.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting entry"))
	}
	assert.Equal(t, got.Status, consts.QueueStatusFailed, "status mismatch")
	assert.Equal(t, got.ErrorMessage, "connection refused", "error message mismatch")
	assert.Equal(t, got.RetryCount, 1, "retry count mismatch")

	if err := ResetFailed(db, c, item.ID); err != nil {
		t.Fatal(errors.Wrap(err, "resetting failed"))
	}

	got, err = Get(db, item.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting entry"))
	}
	assert.Equal(t, got.Status, consts.QueueStatusPending, "status mismatch")
	assert.Equal(t, got.ErrorMessage, "", "error message should be cleared")
	assert.Equal(t, got.RetryCount, 1, "retry count should be retained")
}

func TestResetFailedRequiresFailed(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	item := mustEnqueue(t, db, c, consts.TableStudents, "student-1", consts.QueueOpUpdate, "{}")

	err := ResetFailed(db, c, item.ID)
	assert.Equal(t, errors.Cause(err), ErrInvalidTransition, "error mismatch")
}

func TestResetFailedSupersededByPending(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	stale := mustEnqueue(t, db, c, consts.TableStudents, "student-1", consts.QueueOpUpdate, `{"last_name": "Santos"}`)
	if err := MarkSyncing(db, c, stale.ID); err != nil {
		t.Fatal(errors.Wrap(err, "marking syncing"))
	}
	if err := MarkFailed(db, c, stale.ID, "boom"); err != nil {
		t.Fatal(errors.Wrap(err, "marking failed"))
	}

	// a later edit queues a fresh mutation for the same record
	c.Advance(time.Second)
	fresh := mustEnqueue(t, db, c, consts.TableStudents, "student-1", consts.QueueOpUpdate, `{"last_name": "Reyes"}`)

	if err := ResetFailed(db, c, stale.ID); err != nil {
		t.Fatal(errors.Wrap(err, "resetting failed"))
	}

	pending, err := ListPending(db, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing pending"))
	}
	assert.Equal(t, len(pending), 1, "pending count mismatch")
	assert.Equal(t, pending[0].ID, fresh.ID, "surviving entry mismatch")
	assert.Equal(t, pending[0].Payload, `{"last_name": "Reyes"}`, "payload mismatch")

	_, err = Get(db, stale.ID)
	assert.Equal(t, err, ErrNotFound, "superseded entry should be removed")
}

func TestReconcileStale(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	c := newTestClock(t)

	first := mustEnqueue(t, db, c, consts.TableStudents, "student-1", consts.QueueOpUpdate, "{}")
	mustEnqueue(t, db, c, consts.TableStudents, "student-2", consts.QueueOpUpdate, "{}")

	if err := MarkSyncing(db, c, first.ID); err != nil {
		t.Fatal(errors.Wrap(err, "marking syncing"))
	}

	n, err := ReconcileStale(db, c)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}
	assert.Equal(t, n, 1, "reverted count mismatch")

	got, err := Get(db, first.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting entry"))
	}
	assert.Equal(t, got.Status, consts.QueueStatusPending, "status mismatch")
}
