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

package login

import (
	"database/sql"
	"net/url"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/client"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/infra"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  scholastic login`

var apiEndpointFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.AppCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// getServerDisplayURL returns the server url for display. It strips the
// trailing /api path from the endpoint.
func getServerDisplayURL(ctx context.AppCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil {
		return ""
	}
	if u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host
}

// Do requests a session token and stores the signed-in user locally
func Do(ctx context.AppCtx, email, password string) error {
	resp, err := client.Signin(ctx, email, password)
	if err != nil {
		return err
	}

	db := ctx.DB
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	user := database.User{
		ID:          resp.User.ID,
		FirstName:   resp.User.FirstName,
		MiddleName:  resp.User.MiddleName,
		LastName:    resp.User.LastName,
		Email:       resp.User.Email,
		Role:        resp.User.Role,
		Token:       sql.NullString{String: resp.Token, Valid: true},
		TokenExpiry: sql.NullString{String: resp.ExpiresAt, Valid: resp.ExpiresAt != ""},
	}
	if err := user.Upsert(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "saving user")
	}
	if err := database.UpsertSystem(tx, consts.SystemCurrentUserID, user.ID); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "saving current user id")
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

		if displayURL := getServerDisplayURL(ctx); displayURL != "" {
			log.Infof("logging in to %s\n", displayURL)
		}

		var email, password string
		if err := ui.PromptInput("email", &email); err != nil {
			return errors.Wrap(err, "getting email input")
		}
		if email == "" {
			return errors.New("email is empty")
		}

		if err := ui.PromptPassword("password", &password); err != nil {
			return errors.Wrap(err, "getting password input")
		}
		if password == "" {
			return errors.New("password is empty")
		}

		err := Do(ctx, email, password)
		if err == client.ErrInvalidLogin {
			log.Error("wrong email and password combination\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Success("logged in\n")

		return nil
	}
}
