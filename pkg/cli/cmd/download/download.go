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

package download

import (
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/download"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/infra"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/synclog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  scholastic download`

var apiEndpointFlag string

// NewCmd returns a new download command
func NewCmd(ctx context.AppCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "download",
		Aliases: []string{"dl"},
		Short:   "Download records from the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

func tally(res download.Result) (total, saved int) {
	for _, c := range res.Counts {
		total += c.Total
		saved += c.Saved
	}

	return total, saved
}

// Do runs the full download and records it in the sync log
func Do(ctx context.AppCtx) (download.Result, error) {
	logRun, err := synclog.CreateRun(ctx.DB, ctx.Clock, consts.SyncTypeFull, consts.SyncDirectionDownload)
	if err != nil {
		return download.Result{}, errors.Wrap(err, "creating sync run")
	}

	res, err := download.All(ctx)
	if err != nil {
		if logErr := synclog.Fail(ctx.DB, ctx.Clock, logRun.ID, err.Error()); logErr != nil {
			return res, errors.Wrap(logErr, "recording run failure")
		}

		return res, err
	}

	total, saved := tally(res)
	if err := synclog.UpdateCounts(ctx.DB, logRun.ID, total, saved, len(res.Errors)); err != nil {
		return res, errors.Wrap(err, "recording run counts")
	}

	if res.Success {
		if err := synclog.Complete(ctx.DB, ctx.Clock, logRun.ID, saved, len(res.Errors)); err != nil {
			return res, errors.Wrap(err, "recording run completion")
		}
	} else {
		if err := synclog.Fail(ctx.DB, ctx.Clock, logRun.ID, "some scopes failed"); err != nil {
			return res, errors.Wrap(err, "recording run failure")
		}
	}

	return res, nil
}

func newRun(ctx context.AppCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		log.Infof("downloading records\n")

		res, err := Do(ctx)
		if err == download.ErrNotLoggedIn {
			log.Error("not logged in. please run `scholastic login`\n")
			return nil
		} else if err == download.ErrAuthExpired {
			log.Error("your session has expired. please run `scholastic login`\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "downloading")
		}

		total, saved := tally(res)
		log.Successf("downloaded %d/%d records\n", saved, total)

		for _, itemErr := range res.Errors {
			log.Warnf("skipped %s\n", itemErr.String())
		}

		return nil
	}
}
