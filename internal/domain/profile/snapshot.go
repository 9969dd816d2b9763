package profile

import "sort"

type scopedID struct {
	id    string
	scope string
}

type aliasKey struct {
	namespace string
	name      string
	scope     string
}

// Snapshot is an immutable view of profiles and aliases. It is rebuilt on
// reload and never mutated afterwards, so readers need no locking.
type Snapshot struct {
	ids     map[string]map[string]Kind
	byKey   map[string]map[string]string
	byName  map[string]map[string][]scopedID
	aliases map[aliasKey]string
	size    int
}

func NewSnapshot(entities []Entity, aliases []Alias) *Snapshot {
	s := &Snapshot{
		ids:     make(map[string]map[string]Kind),
		byKey:   make(map[string]map[string]string),
		byName:  make(map[string]map[string][]scopedID),
		aliases: make(map[aliasKey]string, len(aliases)),
	}

	for _, e := range entities {
		ns := e.Kind.Namespace()
		if s.ids[ns] == nil {
			s.ids[ns] = make(map[string]Kind)
			s.byKey[ns] = make(map[string]string)
			s.byName[ns] = make(map[string][]scopedID)
		}
		if _, dup := s.ids[ns][e.ID]; !dup {
			s.size++
		}
		s.ids[ns][e.ID] = e.Kind
		if e.RegistryKey != "" {
			s.byKey[ns][e.RegistryKey] = e.ID
		}
		scope := NormalizeName(e.Scope)
		for _, name := range e.Names() {
			key := NormalizeName(name)
			s.byName[ns][key] = appendUnique(s.byName[ns][key], scopedID{id: e.ID, scope: scope})
		}
	}

	for ns := range s.byName {
		for name, ids := range s.byName[ns] {
			sort.Slice(ids, func(i, j int) bool {
				if ids[i].id != ids[j].id {
					return ids[i].id < ids[j].id
				}
				return ids[i].scope < ids[j].scope
			})
			s.byName[ns][name] = ids
		}
	}

	for _, a := range aliases {
		s.aliases[aliasKey{namespace: a.Kind.Namespace(), name: NormalizeName(a.Name), scope: NormalizeName(a.Scope)}] = a.EntityID
	}
	return s
}

// Known reports whether id is a stored profile in the kind's namespace.
func (s *Snapshot) Known(kind Kind, id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[kind.Namespace()][id]
	return ok
}

func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return s.size
}

func (s *Snapshot) AliasCount() int {
	if s == nil {
		return 0
	}
	return len(s.aliases)
}

func (s *Snapshot) lookupKey(kind Kind, key string) (string, bool) {
	id, ok := s.byKey[kind.Namespace()][key]
	return id, ok
}

// lookupName returns the distinct ids whose canonical name matches and whose
// scope is compatible with the requested one.
func (s *Snapshot) lookupName(kind Kind, name, scope string) []string {
	entries := s.byName[kind.Namespace()][name]
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if scope != "" && e.scope != "" && e.scope != scope {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == e.id {
			continue
		}
		out = append(out, e.id)
	}
	return out
}

func (s *Snapshot) lookupAlias(kind Kind, name, scope string) (string, bool) {
	id, ok := s.aliases[aliasKey{namespace: kind.Namespace(), name: name, scope: scope}]
	return id, ok
}

func appendUnique(list []scopedID, v scopedID) []scopedID {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
