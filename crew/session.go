/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package crew

import (
	"context"

	"github.com/slott56/go-rete/core"
)

// Session is a triple: id, the ProductionSetSource it was loaded
// from, and the *core.Engine actually running. Generalizes the
// teacher's Machine (id, Specter, State) to a rule engine: there is no
// separate "state" value to track alongside the engine, since the
// engine's FactStore and Network already are the session's state.
type Session struct {
	Id     string               `json:"id,omitempty"`
	Source *ProductionSetSource `json:"productions,omitempty"`
	Engine *core.Engine         `json:"-"`
}

// NewSession makes a Session with a fresh, empty Engine.
func NewSession(id string, opts core.EngineOptions) *Session {
	return &Session{Id: id, Engine: core.NewEngine(opts)}
}

// Load compiles every production in ps into s's engine, replacing any
// production already present under the same name, and records source
// as where ps came from.
func (s *Session) Load(ctx context.Context, source *ProductionSetSource, ps *core.ProductionSet) error {
	for _, p := range ps.Productions() {
		if _, err := s.Engine.AddProduction(ctx, p); err != nil {
			return err
		}
	}
	s.Source = source
	return nil
}

// ProductionSetSource aspires to hold the origin of a ProductionSet,
// generalizing the teacher's SpecSource. Just how a
// ProductionSetSource is resolved is up to the application; a
// ProductionSetProvider does the actual lookup.
type ProductionSetSource struct {
	// Name is an optional string a provider can use to look up a
	// ProductionSet (from a file, a database row, a service call).
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// URL is an optional pointer to a ProductionSet.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// NewProductionSetSource makes a ProductionSetSource naming a
// ProductionSet by name.
func NewProductionSetSource(name string) *ProductionSetSource {
	return &ProductionSetSource{Name: name}
}

// Copy makes a copy of s.
func (s *ProductionSetSource) Copy() *ProductionSetSource {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// ProductionSetProvider resolves a ProductionSetSource into the
// ProductionSet it names. A production rule set is ordinary
// Go-constructed data (§6A), not a bespoke text grammar, so a provider
// typically looks one up from a registry of functions rather than
// parsing a file.
type ProductionSetProvider interface {
	FindProductionSet(ctx context.Context, s *ProductionSetSource) (*core.ProductionSet, error)
}
