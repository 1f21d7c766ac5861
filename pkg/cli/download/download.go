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

// Package download pulls consistent, foreign-key-valid snapshots of the
// remote entity graph into the local store. Each cascade fetches one bounded
// subgraph, walks it in dependency order, and persists it through the entity
// repositories. A single bad record never aborts a run; it is skipped and
// recorded in the result.
package download

import (
	"fmt"

	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/client"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/context"
	"github.com/SudoCrazyDev/scholastic-cloud-sub002/pkg/cli/log"
	"github.com/pkg/errors"
)

// ErrNotLoggedIn is returned when a cascade is invoked without a valid local
// session. No network I/O is attempted.
var ErrNotLoggedIn = errors.New("not logged in")

// ErrAuthExpired is returned when the remote system rejects the session
// credential. The caller should trigger a re-login.
var ErrAuthExpired = errors.New("authentication expired")

// ItemError describes a single record that could not be persisted
type ItemError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (e ItemError) String() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

// Count tracks how many records of an entity kind were saved out of the
// total encountered
type Count struct {
	Saved int `json:"saved"`
	Total int `json:"total"`
}

// Result describes the outcome of a cascade run. Errors may be non-empty
// even when Success is true.
type Result struct {
	Success bool             `json:"success"`
	Counts  map[string]Count `json:"counts"`
	Errors  []ItemError      `json:"errors"`
}

// merge folds another result into this one
func (r *Result) merge(other Result) {
	if !other.Success {
		r.Success = false
	}
	for entity, c := range other.Counts {
		cur := r.Counts[entity]
		cur.Saved += c.Saved
		cur.Total += c.Total
		r.Counts[entity] = cur
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// run holds the per-run state of one cascade: the runtime context, the
// accumulated result, and the dedup sets keyed by entity kind and id.
type run struct {
	ctx    context.AppCtx
	result Result
	seen   map[string]bool
}

func newRun(ctx context.AppCtx) *run {
	return &run{
		ctx: ctx,
		result: Result{
			Success: true,
			Counts:  map[string]Count{},
		},
		seen: map[string]bool{},
	}
}

// markSeen records the entity id in the dedup set. It returns false if the
// id was already processed during this run.
func (r *run) markSeen(entity, id string) bool {
	key := entity + ":" + id
	if r.seen[key] {
		return false
	}

	r.seen[key] = true
	return true
}

func (r *run) countTotal(entity string) {
	c := r.result.Counts[entity]
	c.Total++
	r.result.Counts[entity] = c
}

func (r *run) countSaved(entity string) {
	c := r.result.Counts[entity]
	c.Saved++
	r.result.Counts[entity] = c
}

// skip records a structured error for a record and continues the run
func (r *run) skip(entity, id, reason string) {
	log.Debug("skipping %s %s: %s\n", entity, id, reason)
	r.result.Errors = append(r.result.Errors, ItemError{Entity: entity, ID: id, Reason: reason})
}

// checkSession fails fast when no valid session credential is held locally
func checkSession(ctx context.AppCtx) error {
	if !ctx.Session.IsValid(ctx.Clock) {
		return ErrNotLoggedIn
	}

	return nil
}

// classifyFetchErr translates a remote fetch error into the cascade failure
// taxonomy. A 404 is a legitimate empty scope for collection endpoints and
// yields (true, nil); a 401 surfaces as ErrAuthExpired; anything else is a
// transient failure left to the caller to retry.
func classifyFetchErr(err error) (emptyScope bool, out error) {
	if err == nil {
		return false, nil
	}

	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.IsNotFound() {
			return true, nil
		}
		if httpErr.IsAuthExpired() {
			return false, ErrAuthExpired
		}
	}

	return false, errors.Wrap(err, "fetching from the remote")
}
