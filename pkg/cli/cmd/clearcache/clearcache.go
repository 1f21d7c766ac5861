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

package clearcache

import (
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/infra"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/syncqueue"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  scholastic clear-cache`

var yesFlag bool

// NewCmd returns a new clear-cache command
func NewCmd(ctx context.AppCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clear-cache",
		Short:   "Remove all downloaded records",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "skip confirmation")

	return cmd
}

// Do removes all mirrored records. The signed-in user, the sync queue and
// the sync log are kept. Children are cleared before their parents so the
// foreign keys hold at every point.
func Do(ctx context.AppCtx) error {
	db := ctx.DB
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	steps := []struct {
		name string
		run  func(*database.DB) error
	}{
		{consts.TableStudentRunningGrades, database.ClearStudentRunningGrades},
		{consts.TableStudentEcrItemScores, database.ClearStudentEcrItemScores},
		{consts.TableSubjectEcrItems, database.ClearSubjectEcrItems},
		{consts.TableSubjectEcrs, database.ClearSubjectEcrs},
		{consts.TableStudentSections, database.ClearStudentSections},
		{consts.TableStudents, database.ClearStudents},
		{consts.TableSubjects, database.ClearSubjects},
		{consts.TableClassSections, database.ClearClassSections},
		{consts.TableInstitutions, database.ClearInstitutions},
	}
	for _, step := range steps {
		if err := step.run(tx); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "clearing %s", step.name)
		}
	}

	if err := database.DeleteSystem(tx, consts.SystemLastDownloadAt); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "clearing last download time")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

func newRun(ctx context.AppCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		pending, err := syncqueue.CountPending(ctx.DB, "")
		if err != nil {
			return errors.Wrap(err, "counting pending changes")
		}
		if pending > 0 {
			log.Warnf("%d local changes have not been pushed yet\n", pending)
		}

		if !yesFlag {
			confirmed, err := ui.Confirm("remove all downloaded records?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !confirmed {
				log.Info("aborted\n")
				return nil
			}
		}

		if err := Do(ctx); err != nil {
			return errors.Wrap(err, "clearing cache")
		}

		log.Success("cleared all downloaded records\n")

		return nil
	}
}
