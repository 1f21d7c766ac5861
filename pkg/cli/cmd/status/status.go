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

package status

import (
	"database/sql"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/infra"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/syncqueue"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/synclog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  scholastic status`

// NewCmd returns a new status command
func NewCmd(ctx context.AppCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show sync status",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.AppCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		db := ctx.DB

		if ctx.Session.IsValid(ctx.Clock) {
			log.Infof("logged in as user %s\n", ctx.Session.UserID)
		} else {
			log.Info("not logged in\n")
		}

		var lastDownloadAt string
		err := database.GetSystem(db, consts.SystemLastDownloadAt, &lastDownloadAt)
		if errors.Cause(err) == sql.ErrNoRows {
			log.Info("no download has completed yet\n")
		} else if err != nil {
			return errors.Wrap(err, "finding last download time")
		} else {
			log.Infof("last download completed at %s\n", lastDownloadAt)
		}

		pending, err := syncqueue.CountPending(db, "")
		if err != nil {
			return errors.Wrap(err, "counting pending changes")
		}
		log.Infof("%d pending changes\n", pending)

		failed, err := syncqueue.ListFailed(db, "")
		if err != nil {
			return errors.Wrap(err, "listing failed changes")
		}
		if len(failed) > 0 {
			log.Warnf("%d failed changes. run `scholastic retry` to requeue them\n", len(failed))
			for _, item := range failed {
				log.Plainf("%s %s %s (retried %d times): %s\n",
					item.Operation, item.TableName, item.RecordID, item.RetryCount, item.ErrorMessage)
			}
		}

		lastRun, err := synclog.LastCompletedRun(db, consts.SyncTypeQueue, consts.SyncDirectionUpload)
		if err == synclog.ErrNotFound {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "finding last upload run")
		}

		log.Infof("last push completed at %s\n", lastRun.CompletedAt.String)

		return nil
	}
}
