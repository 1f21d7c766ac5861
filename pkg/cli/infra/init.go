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

// Package infra provides operations and definitions for the
// local infrastructure for scholastic
package infra

import (
	"database/sql"
	"fmt"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/client"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/config"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/consts"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/session"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/syncqueue"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/utils"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/clock"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
)

// RunEFunc is a function type of scholastic commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.AppDirName, consts.DBFileName)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.AppCtx, error) {
	paths := context.Paths{
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := initDirs(paths); err != nil {
		return context.AppCtx{}, errors.Wrap(err, "creating the scholastic dirs")
	}

	dbPath := getDBPath(paths, customDBPath)

	db, err := database.Open(dbPath)
	if err != nil {
		return context.AppCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.AppCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the scholastic environment and returns a new context.
// apiEndpoint is used when creating a new config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.AppCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if err := database.InitSchema(ctx.DB); err != nil {
		return nil, errors.Wrap(err, "initializing database")
	}

	// a leftover syncing entry means an interrupted flush; hand it back
	n, err := syncqueue.ReconcileStale(ctx.DB, clock.New())
	if err != nil {
		return nil, errors.Wrap(err, "reconciling stale queue entries")
	}
	if n > 0 {
		log.Debug("reverted %d stale syncing entries to pending\n", n)
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// LoadSession reads the signed-in user's credential from the local store. A
// missing user or credential yields an empty session, not an error.
func LoadSession(db *database.DB) (session.Session, error) {
	var userID string

	err := database.GetSystem(db, consts.SystemCurrentUserID, &userID)
	if errors.Cause(err) == sql.ErrNoRows {
		return session.Session{}, nil
	} else if err != nil {
		return session.Session{}, errors.Wrap(err, "finding current user id")
	}

	user, err := database.GetUser(db, userID)
	if err == database.ErrNotFound {
		return session.Session{}, nil
	} else if err != nil {
		return session.Session{}, errors.Wrapf(err, "finding user %s", userID)
	}

	ret := session.Session{
		UserID: user.ID,
		Token:  user.Token.String,
		Expiry: user.TokenExpiry.String,
	}

	return ret, nil
}

// setupCtx enriches the base context with values from the config file and
// the database. This is called after files and database have been initialized.
func setupCtx(ctx context.AppCtx) (context.AppCtx, error) {
	sess, err := LoadSession(ctx.DB)
	if err != nil {
		return ctx, errors.Wrap(err, "loading session")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	ret := context.AppCtx{
		Paths:       ctx.Paths,
		Version:     ctx.Version,
		DB:          ctx.DB,
		Session:     sess,
		APIEndpoint: cf.APIEndpoint,
		Clock:       clock.New(),
		HTTPClient:  client.NewHTTPClient(),
	}

	return ret, nil
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.AppCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint: endpoint,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// initDirs creates, if necessary, the scholastic directories
func initDirs(paths context.Paths) error {
	if err := utils.EnsureDir(fmt.Sprintf("%s/%s", paths.Config, consts.AppDirName)); err != nil {
		return errors.Wrap(err, "creating the config dir")
	}
	if err := utils.EnsureDir(fmt.Sprintf("%s/%s", paths.Data, consts.AppDirName)); err != nil {
		return errors.Wrap(err, "creating the data dir")
	}
	if err := utils.EnsureDir(fmt.Sprintf("%s/%s", paths.Cache, consts.AppDirName)); err != nil {
		return errors.Wrap(err, "creating the cache dir")
	}

	return nil
}
