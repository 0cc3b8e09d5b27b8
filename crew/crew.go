/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package crew generalizes the teacher's crew.Crew/crew.Machine
// registry from a directory of state-machine instances sharing a Spec
// to a directory of rule-engine Sessions sharing a ProductionSet.
package crew

import (
	"sync"

	"github.com/slott56/go-rete/util"
)

// Registry is a concurrency-safe directory of named Sessions, keyed by
// id, each running its own *core.Engine. Many Sessions can load the
// same ProductionSet and run independent working memories against it,
// exactly as the teacher's Crew let many Machines share one Spec.
type Registry struct {
	sync.RWMutex

	Id       string              `json:"id"`
	Sessions map[string]*Session `json:"sessions"`
}

// NewRegistry makes an empty Registry.
func NewRegistry(id string) *Registry {
	return &Registry{Id: id, Sessions: make(map[string]*Session)}
}

// Get returns the named session, if present.
func (r *Registry) Get(id string) (*Session, bool) {
	r.RLock()
	defer r.RUnlock()
	s, have := r.Sessions[id]
	return s, have
}

// Put registers s under its own Id, replacing any existing session of
// that id.
func (r *Registry) Put(s *Session) {
	r.Lock()
	defer r.Unlock()
	r.Sessions[s.Id] = s
	util.Logf("crew %q: put session %q", r.Id, s.Id)
}

// Remove deletes the named session, if present.
func (r *Registry) Remove(id string) {
	r.Lock()
	defer r.Unlock()
	delete(r.Sessions, id)
	util.Logf("crew %q: removed session %q", r.Id, id)
}

// Ids returns the ids of every currently registered session, in no
// particular order.
func (r *Registry) Ids() []string {
	r.RLock()
	defer r.RUnlock()
	out := make([]string, 0, len(r.Sessions))
	for id := range r.Sessions {
		out = append(out, id)
	}
	return out
}

// Copy gets a read lock and returns a shallow copy of the registry:
// the same *Session values, in a fresh map, so a caller can iterate
// without holding the lock.
func (r *Registry) Copy() *Registry {
	r.RLock()
	ss := make(map[string]*Session, len(r.Sessions))
	for id, s := range r.Sessions {
		ss[id] = s
	}
	acc := &Registry{Id: r.Id, Sessions: ss}
	r.RUnlock()
	return acc
}
