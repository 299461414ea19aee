package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/bisa-app/factcheck/internal/model"
)

// MemoryStore keeps runs in process memory with one lock per post
type MemoryStore struct {
	mu    sync.Mutex
	posts map[string]*postRuns
}

type postRuns struct {
	mu      sync.Mutex
	runs    []*model.FactCheckResult // creation order
	latest  *model.FactCheckResult
	pending *model.FactCheckResult
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{posts: make(map[string]*postRuns)}
}

func (s *MemoryStore) post(postID string, create bool) *postRuns {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok && create {
		p = &postRuns{}
		s.posts[postID] = p
	}
	return p
}

func (s *MemoryStore) Create(ctx context.Context, r *model.FactCheckResult) error {
	if r.RunStatus != model.RunPending {
		return fmt.Errorf("create %s: status %s is not PENDING", r.ID, r.RunStatus)
	}

	p := s.post(r.PostID, true)
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		return fmt.Errorf("post %s: %w", r.PostID, ErrPendingExists)
	}
	row := r.Clone()
	p.runs = append(p.runs, row)
	p.pending = row
	return nil
}

func (s *MemoryStore) Finish(ctx context.Context, r *model.FactCheckResult) error {
	if !r.RunStatus.IsFinal() {
		return fmt.Errorf("finish %s: status %s is not final", r.ID, r.RunStatus)
	}

	p := s.post(r.PostID, false)
	if p == nil {
		return fmt.Errorf("finish %s: %w", r.ID, ErrNotPending)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil || p.pending.ID != r.ID {
		return fmt.Errorf("finish %s: %w", r.ID, ErrNotPending)
	}

	row := r.Clone()
	for i := len(p.runs) - 1; i >= 0; i-- {
		if p.runs[i].ID == r.ID {
			p.runs[i] = row
			break
		}
	}
	p.pending = nil
	if row.RunStatus == model.RunCompleted {
		p.latest = row
	}
	return nil
}

func (s *MemoryStore) Latest(ctx context.Context, postID string) (*model.FactCheckResult, error) {
	p := s.post(postID, false)
	if p == nil {
		return nil, ErrNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.latest == nil {
		return nil, ErrNotFound
	}
	return p.latest.Clone(), nil
}

func (s *MemoryStore) History(ctx context.Context, postID string, page, size int) ([]*model.FactCheckResult, error) {
	page, size = normalizePage(page, size)
	out := []*model.FactCheckResult{}

	p := s.post(postID, false)
	if p == nil {
		return out, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	skip := page * size
	for i := len(p.runs) - 1 - skip; i >= 0 && len(out) < size; i-- {
		out = append(out, p.runs[i].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Pending(ctx context.Context, postID string) (*model.FactCheckResult, error) {
	p := s.post(postID, false)
	if p == nil {
		return nil, ErrNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		return nil, ErrNotFound
	}
	return p.pending.Clone(), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
