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

package push

import (
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/client"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/flush"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/infra"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  scholastic push`

var apiEndpointFlag string

// NewCmd returns a new push command
func NewCmd(ctx context.AppCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "push",
		Short:   "Deliver pending local changes to the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

func newRun(ctx context.AppCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		report, err := flush.Run(ctx)
		if err == client.ErrNoSession {
			log.Error("not logged in. please run `scholastic login`\n")
			return nil
		} else if err != nil {
			var httpErr *client.HTTPError
			if errors.As(err, &httpErr) && httpErr.IsAuthExpired() {
				log.Error("your session has expired. please run `scholastic login`\n")
				return nil
			}

			return errors.Wrap(err, "pushing local changes")
		}

		if report.Total == 0 {
			log.Info("nothing to push\n")
			return nil
		}

		log.Successf("delivered %d/%d changes\n", report.Delivered, report.Total)
		if report.Failed > 0 {
			log.Warnf("%d changes failed delivery. run `scholastic status` for details\n", report.Failed)
		}

		return nil
	}
}
