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

// Package context defines the scholastic runtime context
package context

import (
	"net/http"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/database"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/session"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Config string
	Data   string
	Cache  string
}

// AppCtx is a context holding the information of the current runtime
type AppCtx struct {
	Paths       Paths
	APIEndpoint string
	Version     string
	DB          *database.DB
	Session     session.Session
	Clock       clock.Clock
	HTTPClient  *http.Client
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx AppCtx) AppCtx {
	if ctx.Session.Token != "" {
		ctx.Session.Token = "1"
	} else {
		ctx.Session.Token = "0"
	}

	return ctx
}
