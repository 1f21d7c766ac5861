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

package client

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// The remote API returns relationship fields in two shapes: a fully embedded
// object or a bare id string. The Ref types decode either shape into a tagged
// variant so downstream logic branches explicitly instead of inspecting types.

// decodeRef decodes b into obj when it holds an object, or returns the bare
// id when it holds a string. A JSON null yields an empty id.
func decodeRef(b []byte, obj interface{}) (id string, embedded bool, err error) {
	trimmed := string(b)
	if trimmed == "null" {
		return "", false, nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false, errors.Wrap(err, "unmarshalling reference id")
		}

		return s, false, nil
	}

	if err := json.Unmarshal(b, obj); err != nil {
		return "", false, errors.Wrap(err, "unmarshalling embedded object")
	}

	return "", true, nil
}

// UserRef is a relationship to a user, either embedded or by id
type UserRef struct {
	ID   string
	User *RespUser
}

// UnmarshalJSON decodes a bare id string or an embedded user object
func (r *UserRef) UnmarshalJSON(b []byte) error {
	var obj RespUser

	id, embedded, err := decodeRef(b, &obj)
	if err != nil {
		return err
	}

	if embedded {
		r.ID = obj.ID
		r.User = &obj
	} else {
		r.ID = id
		r.User = nil
	}

	return nil
}

// IsEmbedded returns true if the relationship carries the full user object
func (r UserRef) IsEmbedded() bool {
	return r.User != nil
}

// InstitutionRef is a relationship to an institution, either embedded or by id
type InstitutionRef struct {
	ID          string
	Institution *RespInstitution
}

// UnmarshalJSON decodes a bare id string or an embedded institution object
func (r *InstitutionRef) UnmarshalJSON(b []byte) error {
	var obj RespInstitution

	id, embedded, err := decodeRef(b, &obj)
	if err != nil {
		return err
	}

	if embedded {
		r.ID = obj.ID
		r.Institution = &obj
	} else {
		r.ID = id
		r.Institution = nil
	}

	return nil
}

// IsEmbedded returns true if the relationship carries the full institution object
func (r InstitutionRef) IsEmbedded() bool {
	return r.Institution != nil
}

// StudentRef is a relationship to a student, either embedded or by id
type StudentRef struct {
	ID      string
	Student *RespStudent
}

// UnmarshalJSON decodes a bare id string or an embedded student object
func (r *StudentRef) UnmarshalJSON(b []byte) error {
	var obj RespStudent

	id, embedded, err := decodeRef(b, &obj)
	if err != nil {
		return err
	}

	if embedded {
		r.ID = obj.ID
		r.Student = &obj
	} else {
		r.ID = id
		r.Student = nil
	}

	return nil
}

// IsEmbedded returns true if the relationship carries the full student object
func (r StudentRef) IsEmbedded() bool {
	return r.Student != nil
}
