package reviews

import "context"

// Repo persists resume uploads. Reads are always scoped to the owner.
type Repo interface {
	Create(ctx context.Context, upload ResumeUpload) error
	GetByIDForUser(ctx context.Context, userID, id string) (ResumeUpload, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error)
}
