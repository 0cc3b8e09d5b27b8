package core

import "strconv"

// Fact is an identified record: an ordered sequence of positional
// values plus a mapping from attribute names to values. Positional
// values decompose into WMEs whose attribute name is the decimal
// rendering of the position ("0", "1", …), exactly as described in
// §3 of the design.
//
// Fact-id is assigned by the FactStore on insertion and is never
// reused within the store's lifetime.
type Fact struct {
	Id         int64
	Positional []Value
	Attrs      map[string]Value

	// wmes holds, by attribute name, the live *WME this fact's
	// attribute currently decomposes to. It is populated on insertion
	// and kept current by UpdateFact, so that removal and update can
	// deactivate exactly the WME instances the alpha network actually
	// indexed rather than reconstructing (necessarily different)
	// lookalikes.
	wmes map[string]*WME
}

// NewFact makes a Fact with the given positional values and no named
// attributes; use WithAttr to add attributes.
func NewFact(positional ...Value) *Fact {
	return &Fact{Positional: positional, Attrs: make(map[string]Value)}
}

// WithAttr sets a named attribute and returns the receiver, to allow
// chaining at construction time.
func (f *Fact) WithAttr(name string, v Value) *Fact {
	if f.Attrs == nil {
		f.Attrs = make(map[string]Value)
	}
	f.Attrs[name] = v
	return f
}

// HasVariable reports whether any positional value or attribute value
// of f is (or, for a mapping, nested-contains) a pattern variable
// string. add_fact rejects such facts (§6).
func (f *Fact) HasVariable() (string, bool) {
	for i, v := range f.Positional {
		if path, bad := valueHasVariable(v); bad {
			return strconv.Itoa(i) + path, true
		}
	}
	for k, v := range f.Attrs {
		if path, bad := valueHasVariable(v); bad {
			return k + path, true
		}
	}
	return "", false
}

func valueHasVariable(v Value) (string, bool) {
	switch vv := v.(type) {
	case string:
		if IsVariable(vv) {
			return "", true
		}
	case []interface{}:
		for i, x := range vv {
			if path, bad := valueHasVariable(x); bad {
				return "[" + strconv.Itoa(i) + "]" + path, true
			}
		}
	case map[string]interface{}:
		for k, x := range vv {
			if path, bad := valueHasVariable(x); bad {
				return "." + k + path, true
			}
		}
	}
	return "", false
}

// decompose builds f's WMEs and records them in f.wmes, keyed by
// attribute, so later removal or update can deactivate the exact same
// instances.
func (f *Fact) decompose() []*WME {
	out := make([]*WME, 0, len(f.Positional)+len(f.Attrs))
	f.wmes = make(map[string]*WME, len(f.Positional)+len(f.Attrs))
	for i, v := range f.Positional {
		w := &WME{FactId: f.Id, Attr: strconv.Itoa(i), Value: v, Fact: f}
		out = append(out, w)
		f.wmes[w.Attr] = w
	}
	for k, v := range f.Attrs {
		w := &WME{FactId: f.Id, Attr: k, Value: v, Fact: f}
		out = append(out, w)
		f.wmes[w.Attr] = w
	}
	return out
}

// WME is a working-memory element: a (fact-id, attribute, value)
// triple. The Fact field is a convenience back-pointer to the owning
// Fact, used by path-expression evaluation and by native
// actions/tests/binds that want the whole fact, not just one
// attribute.
type WME struct {
	FactId int64
	Attr   string
	Value  Value
	Fact   *Fact

	// amems holds every AlphaMemory currently indexing this WME, so
	// that removal can be done without a network-wide search.
	amems []*AlphaMemory

	// tokens holds every Token that was built, at some join level,
	// by combining a left token with this WME. Removing the WME
	// must remove every such token. Mirrors py_rete's WME.tokens.
	tokens []*Token

	// negJoinResults holds the NegativeJoinResult records (across
	// all NegativeNodes) for which this WME is the witness. Mirrors
	// py_rete's WME.negative_join_results.
	negJoinResults []*negativeJoinResult
}

// FactStore is working memory: the canonical store of facts, assigning
// and tracking stable fact-ids.
type FactStore struct {
	nextId int64
	facts  map[int64]*Fact
}

// NewFactStore makes an empty FactStore.
func NewFactStore() *FactStore {
	return &FactStore{facts: make(map[int64]*Fact)}
}

// insert assigns the next fact-id to f, stores it, and returns its
// WMEs. The caller (Engine.AddFact) is responsible for propagating
// them.
func (fs *FactStore) insert(f *Fact) []*WME {
	fs.nextId++
	f.Id = fs.nextId
	fs.facts[f.Id] = f
	return f.decompose()
}

// remove deletes the fact with the given id and returns the live WMEs
// it was indexed under (so the caller can propagate their removal);
// ok is false if the id is unknown.
func (fs *FactStore) remove(id int64) ([]*WME, bool) {
	f, have := fs.facts[id]
	if !have {
		return nil, false
	}
	delete(fs.facts, id)
	out := make([]*WME, 0, len(f.wmes))
	for _, w := range f.wmes {
		out = append(out, w)
	}
	return out, true
}

// update applies attribute changes to the fact with the given id,
// returning the (old, new) WME pair for every attribute whose value
// actually changed (per §4.7, unchanged attributes are left alone so
// downstream tokens that don't depend on them are never disturbed).
// ok is false if the id is unknown.
func (fs *FactStore) update(id int64, changes map[string]Value) (removed, added []*WME, ok bool) {
	f, have := fs.facts[id]
	if !have {
		return nil, nil, false
	}
	for attr, newVal := range changes {
		oldVal, had := f.Attrs[attr]
		if had && ValuesEqual(oldVal, newVal) {
			continue
		}
		if old, have := f.wmes[attr]; have {
			removed = append(removed, old)
		}
		if f.Attrs == nil {
			f.Attrs = make(map[string]Value)
		}
		f.Attrs[attr] = newVal
		w := &WME{FactId: id, Attr: attr, Value: newVal, Fact: f}
		f.wmes[attr] = w
		added = append(added, w)
	}
	return removed, added, true
}

// Get returns the fact with the given id, if present.
func (fs *FactStore) Get(id int64) (*Fact, bool) {
	f, have := fs.facts[id]
	return f, have
}

// Len returns the number of facts currently in the store.
func (fs *FactStore) Len() int {
	return len(fs.facts)
}
