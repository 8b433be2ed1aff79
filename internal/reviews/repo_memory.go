package reviews

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepo stores records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]ResumeUpload
	byUser map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]ResumeUpload),
		byUser: make(map[string][]string),
	}
}

// Create stores the record. IDs must be unique.
func (r *MemoryRepo) Create(ctx context.Context, upload ResumeUpload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[upload.ID]; exists {
		return fmt.Errorf("review %s already exists", upload.ID)
	}
	r.byID[upload.ID] = upload
	r.byUser[upload.UserID] = append(r.byUser[upload.UserID], upload.ID)
	return nil
}

// GetByIDForUser returns the record when it belongs to userID.
func (r *MemoryRepo) GetByIDForUser(ctx context.Context, userID, id string) (ResumeUpload, error) {
	if err := ctx.Err(); err != nil {
		return ResumeUpload{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	upload, ok := r.byID[id]
	if !ok || upload.UserID != userID {
		return ResumeUpload{}, ErrNotFound
	}
	return upload, nil
}

// ListByUser returns the owner's records, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byUser[userID]
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id].Summarize())
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
