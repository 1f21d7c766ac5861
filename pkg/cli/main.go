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

package main

import (
	"os"
	"strings"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/infra"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	// commands
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/clearcache"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/download"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/login"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/logout"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/push"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/retry"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/root"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/status"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/cmd/version"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts the --dbPath flag value from command line arguments
// regardless of where it appears, because it is needed before cobra parses
// the flags.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.DB.Close()

	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(download.NewCmd(*ctx))
	root.Register(push.NewCmd(*ctx))
	root.Register(retry.NewCmd(*ctx))
	root.Register(status.NewCmd(*ctx))
	root.Register(clearcache.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
