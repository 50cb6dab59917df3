package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/okian/talentmatch/internal/domain/model"
)

// postingRecord keeps a posting together with its latest snapshot.
type postingRecord struct {
	posting  model.Posting
	snapshot *model.Snapshot
}

// MemoryStore implements every store in process memory.
type MemoryStore struct {
	mu            sync.RWMutex
	postings      map[string]*postingRecord
	candidates    map[string]model.Candidate
	notifications map[string]model.NotificationRecord
	byCandidate   map[string][]string // candidate -> notification ids, oldest first
	generations   map[string]uint64
}

var (
	_ PostingStore      = (*MemoryStore)(nil)
	_ CandidateStore    = (*MemoryStore)(nil)
	_ SnapshotStore     = (*MemoryStore)(nil)
	_ NotificationStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		postings:      make(map[string]*postingRecord),
		candidates:    make(map[string]model.Candidate),
		notifications: make(map[string]model.NotificationRecord),
		byCandidate:   make(map[string][]string),
		generations:   make(map[string]uint64),
	}
}

func (s *MemoryStore) UpsertPosting(_ context.Context, p model.Posting) error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidID
	}
	p.Skills = slices.Clone(p.Skills)

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.postings[p.ID]; ok {
		rec.posting = p
		return nil
	}
	s.postings[p.ID] = &postingRecord{posting: p}
	return nil
}

func (s *MemoryStore) Posting(_ context.Context, id string) (model.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.postings[id]
	if !ok {
		return model.Posting{}, ErrNotFound
	}
	p := rec.posting
	p.Skills = slices.Clone(p.Skills)
	return p, nil
}

func (s *MemoryStore) CountPostings(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.postings)
}

func (s *MemoryStore) UpsertCandidate(_ context.Context, c model.Candidate) error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidID
	}
	c.Skills = slices.Clone(c.Skills)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[c.ID] = c
	return nil
}

func (s *MemoryStore) Candidate(_ context.Context, id string) (model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return model.Candidate{}, ErrNotFound
	}
	c.Skills = slices.Clone(c.Skills)
	return c, nil
}

func (s *MemoryStore) Candidates(_ context.Context) ([]model.Candidate, error) {
	s.mu.RLock()
	out := make([]model.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		c.Skills = slices.Clone(c.Skills)
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CountCandidates(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates)
}

func (s *MemoryStore) NextGeneration(_ context.Context, postingID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[postingID]++
	return s.generations[postingID], nil
}

// ReplaceSnapshot stores the snapshot on the posting record, replacing any
// previous one wholesale.
func (s *MemoryStore) ReplaceSnapshot(_ context.Context, snap model.Snapshot) error {
	snap.Entries = slices.Clone(snap.Entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.postings[snap.PostingID]
	if !ok {
		return ErrNotFound
	}
	if rec.snapshot != nil && snap.Generation < rec.snapshot.Generation {
		return ErrStaleSnapshot
	}
	rec.snapshot = &snap
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context, postingID string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.postings[postingID]
	if !ok || rec.snapshot == nil {
		return model.Snapshot{}, ErrNotFound
	}
	snap := *rec.snapshot
	snap.Entries = slices.Clone(snap.Entries)
	return snap, nil
}

func (s *MemoryStore) SaveNotification(_ context.Context, n model.NotificationRecord) error {
	if strings.TrimSpace(n.ID) == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.notifications[n.ID]; !exists {
		s.byCandidate[n.CandidateID] = append(s.byCandidate[n.CandidateID], n.ID)
	}
	s.notifications[n.ID] = n
	return nil
}

func (s *MemoryStore) NotificationsFor(_ context.Context, candidateID string) ([]model.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byCandidate[candidateID]
	out := make([]model.NotificationRecord, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, s.notifications[ids[i]])
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id string) (model.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return model.NotificationRecord{}, ErrNotFound
	}
	n.IsRead = true
	s.notifications[id] = n
	return n, nil
}
