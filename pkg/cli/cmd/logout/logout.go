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

package logout

import (
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/client"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/infra"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrNotLoggedIn is an error for logging out when not logged in
var ErrNotLoggedIn = errors.New("not logged in")

var example = `
  scholastic logout`

var apiEndpointFlag string

// NewCmd returns a new logout command
func NewCmd(ctx context.AppCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Logout from the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// Do performs logout. The remote session is torn down on a best-effort
// basis; the local credential is always cleared.
func Do(ctx context.AppCtx) error {
	if ctx.Session.UserID == "" || ctx.Session.Token == "" {
		return ErrNotLoggedIn
	}

	if err := client.Signout(ctx); err != nil {
		log.Debug("requesting signout: %s\n", err.Error())
	}

	db := ctx.DB
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	user := database.User{ID: ctx.Session.UserID}
	if err := user.ClearToken(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "clearing token")
	}
	if err := database.DeleteSystem(tx, consts.SystemCurrentUserID); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "deleting current user id")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

func newRun(ctx context.AppCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		err := Do(ctx)
		if err == ErrNotLoggedIn {
			log.Error("not logged in\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
