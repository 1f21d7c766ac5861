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

// Package session defines the local user session. The session is loaded by
// the authentication flow and injected explicitly into every component that
// talks to the remote system; nothing looks it up ambiently.
package session

import (
	"time"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/clock"
)

// Session holds the signed-in user's bearer credential
type Session struct {
	UserID string
	Token  string
	// Expiry is the RFC 3339 timestamp at which the token expires.
	// Empty means the expiry is unknown and the token is assumed valid.
	Expiry string
}

// IsValid reports whether the session holds a usable credential
func (s Session) IsValid(c clock.Clock) bool {
	if s.Token == "" {
		return false
	}
	if s.Expiry == "" {
		return true
	}

	expiry, err := time.Parse(time.RFC3339, s.Expiry)
	if err != nil {
		return false
	}

	return c.Now().Before(expiry)
}
