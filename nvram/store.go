// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nvram

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// Store is a string key/value map kept as YAML in a journal. Every change
// writes a new record.
type Store struct {
	j      *Journal
	values map[string]string
}

// OpenStore loads the newest settings from j.
func OpenStore(j *Journal) (*Store, error) {
	s := &Store{j: j, values: map[string]string{}}
	data, seq := j.Data()
	if seq == 0 {
		return s, nil
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse settings record %d: %v", seq, err)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the stored keys in order.
func (s *Store) Keys() []string {
	var keys []string
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	if v, ok := s.values[key]; ok && v == value {
		return nil
	}
	next := maps.Clone(s.values)
	next[key] = value
	return s.commit(next)
}

// Delete removes key. Deleting a missing key does nothing.
func (s *Store) Delete(key string) error {
	if _, ok := s.values[key]; !ok {
		return nil
	}
	next := maps.Clone(s.values)
	delete(next, key)
	return s.commit(next)
}

func (s *Store) commit(values map[string]string) error {
	b, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %v", err)
	}
	if err := s.j.Update(b); err != nil {
		return err
	}
	s.values = values
	return nil
}
