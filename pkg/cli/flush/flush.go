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

// Package flush drains the sync queue by delivering pending local mutations
// to the remote system, oldest first. Each delivery attempt is recorded on
// the entry; the run as a whole is recorded in the sync log.
package flush

import (
	"encoding/json"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/client"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/syncqueue"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/synclog"
	"github.com/pkg/errors"
)

// Report summarizes one flush run
type Report struct {
	Total     int
	Delivered int
	Failed    int
}

// deliver attempts to send a single queue entry to the remote system
func deliver(ctx context.AppCtx, item syncqueue.Item) error {
	m := client.MutationPayload{
		Table:     item.TableName,
		RecordID:  item.RecordID,
		Operation: item.Operation,
		Payload:   json.RawMessage(item.Payload),
	}

	return client.DeliverMutation(ctx, m)
}

// failRun closes the sync log run when the flush itself errors, so a run is
// never left in progress. It returns the causing error for the caller to
// propagate.
func failRun(ctx context.AppCtx, runID string, cause error) error {
	if err := synclog.Fail(ctx.DB, ctx.Clock, runID, cause.Error()); err != nil {
		log.Debug("failing sync run %s: %v\n", runID, err)
	}

	return cause
}

// Run delivers all pending queue entries. Entries that fail delivery are
// marked failed with the delivery error and their retry count incremented;
// the run moves on to the next entry. Expired authentication aborts the run
// because every remaining delivery would fail the same way.
func Run(ctx context.AppCtx) (Report, error) {
	var report Report

	if !ctx.Session.IsValid(ctx.Clock) {
		return report, client.ErrNoSession
	}

	items, err := syncqueue.ListPending(ctx.DB, "")
	if err != nil {
		return report, errors.Wrap(err, "listing pending queue entries")
	}

	report.Total = len(items)
	if report.Total == 0 {
		return report, nil
	}

	logRun, err := synclog.CreateRun(ctx.DB, ctx.Clock, consts.SyncTypeQueue, consts.SyncDirectionUpload)
	if err != nil {
		return report, errors.Wrap(err, "creating sync run")
	}
	if err := synclog.UpdateCounts(ctx.DB, logRun.ID, report.Total, 0, 0); err != nil {
		return report, failRun(ctx, logRun.ID, errors.Wrap(err, "recording run counts"))
	}

	for _, item := range items {
		if err := syncqueue.MarkSyncing(ctx.DB, ctx.Clock, item.ID); err != nil {
			return report, failRun(ctx, logRun.ID, errors.Wrapf(err, "claiming queue entry %s", item.ID))
		}

		log.Debug("delivering %s %s %s\n", item.Operation, item.TableName, item.RecordID)

		deliverErr := deliver(ctx, item)
		if deliverErr == nil {
			if err := syncqueue.MarkSynced(ctx.DB, item.ID); err != nil {
				return report, failRun(ctx, logRun.ID, errors.Wrapf(err, "clearing queue entry %s", item.ID))
			}

			report.Delivered++
			continue
		}

		if err := syncqueue.MarkFailed(ctx.DB, ctx.Clock, item.ID, deliverErr.Error()); err != nil {
			return report, failRun(ctx, logRun.ID, errors.Wrapf(err, "marking queue entry %s failed", item.ID))
		}
		if err := syncqueue.IncrementRetry(ctx.DB, ctx.Clock, item.ID); err != nil {
			return report, failRun(ctx, logRun.ID, errors.Wrapf(err, "recording retry of queue entry %s", item.ID))
		}

		report.Failed++

		var httpErr *client.HTTPError
		if errors.As(deliverErr, &httpErr) && httpErr.IsAuthExpired() {
			return report, failRun(ctx, logRun.ID, errors.Wrap(deliverErr, "delivering mutation"))
		}
	}

	if report.Failed == 0 {
		if err := synclog.Complete(ctx.DB, ctx.Clock, logRun.ID, report.Delivered, report.Failed); err != nil {
			return report, errors.Wrap(err, "recording run completion")
		}
	} else {
		if err := synclog.UpdateCounts(ctx.DB, logRun.ID, report.Total, report.Delivered, report.Failed); err != nil {
			return report, errors.Wrap(err, "recording run counts")
		}
		if err := synclog.Fail(ctx.DB, ctx.Clock, logRun.ID, "some entries failed delivery"); err != nil {
			return report, errors.Wrap(err, "recording run failure")
		}
	}

	return report, nil
}

// Retry returns all failed entries to pending so the next run attempts them
// again. Returns the number of entries reset.
func Retry(ctx context.AppCtx) (int, error) {
	items, err := syncqueue.ListFailed(ctx.DB, "")
	if err != nil {
		return 0, errors.Wrap(err, "listing failed queue entries")
	}

	for _, item := range items {
		if err := syncqueue.ResetFailed(ctx.DB, ctx.Clock, item.ID); err != nil {
			return 0, errors.Wrapf(err, "resetting queue entry %s", item.ID)
		}
	}

	return len(items), nil
}
