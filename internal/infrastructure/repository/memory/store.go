package memory

import (
	"sync"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/missingmatch"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/domain/rawdata"
)

// Store keeps every aggregate in memory behind one lock. Writes validate
// fully before mutating anything, which gives each call the same
// all-or-nothing behaviour as a database transaction.
type Store struct {
	mu sync.RWMutex

	entities    map[entityKey]profile.Entity
	naturalKeys map[string]string
	aliases     map[aliasKey]profile.Alias
	candidates  map[candidateKey]profile.Candidate

	graphs   map[string]match.Graph
	failures map[string]match.IngestFailure

	missing map[string]missingmatch.Record
	reviews map[string][]missingmatch.Review

	raw map[rawKey]rawdata.Payload

	faults map[faultKey]error
}

type entityKey struct {
	namespace string
	id        string
}

type aliasKey struct {
	namespace string
	name      string
	scope     string
}

type candidateKey struct {
	namespace string
	name      string
	scope     string
}

type rawKey struct {
	source     string
	entityType string
	entityKey  string
}

type faultKey struct {
	op  string
	key string
}

func NewStore() *Store {
	return &Store{
		entities:    make(map[entityKey]profile.Entity),
		naturalKeys: make(map[string]string),
		aliases:     make(map[aliasKey]profile.Alias),
		candidates:  make(map[candidateKey]profile.Candidate),
		graphs:      make(map[string]match.Graph),
		failures:    make(map[string]match.IngestFailure),
		missing:     make(map[string]missingmatch.Record),
		reviews:     make(map[string][]missingmatch.Review),
		raw:         make(map[rawKey]rawdata.Payload),
		faults:      make(map[faultKey]error),
	}
}

// Fault operations accepted by SetFault.
const (
	OpInsertGraph = "InsertGraph"
	OpRecordPage  = "RecordPage"
	OpListKeys    = "ListKeys"
)

// SetFault makes op fail with err for key; an empty key matches every call.
// Passing a nil err clears the fault.
func (s *Store) SetFault(op, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, faultKey{op: op, key: key})
		return
	}
	s.faults[faultKey{op: op, key: key}] = err
}

// fault must be called with s.mu held.
func (s *Store) fault(op, key string) error {
	if err, ok := s.faults[faultKey{op: op, key: key}]; ok {
		return err
	}
	return s.faults[faultKey{op: op}]
}

func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{store: s}
}

func (s *Store) Matches() *MatchRepository {
	return &MatchRepository{store: s}
}

func (s *Store) MissingMatches() *MissingMatchRepository {
	return &MissingMatchRepository{store: s}
}

func (s *Store) RawData() *RawDataRepository {
	return &RawDataRepository{store: s}
}
