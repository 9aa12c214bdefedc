package versioning

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("resource not found")
	// ErrNoRecord means a resource row exists without any version record.
	ErrNoRecord = errors.New("no version record")
	// ErrConflict is returned by Save when a guarded write lost a race.
	ErrConflict = errors.New("concurrent modification")
)

// Repository is the data-access contract shared by every resource type.
// Mutations are staged and only reach the store on Save, which writes all
// of them in one transaction. A Repository belongs to a single request.
type Repository[E Entity[E]] interface {
	GetByID(ctx context.Context, id int64) (E, error)
	Exists(ctx context.Context, id int64) (bool, error)

	// Add stages an insert and clears the deleted flag. A non-zero ID is
	// kept, otherwise the store assigns one on Save.
	Add(e E)
	// Update stages a write of e guarded by the version and deleted flag e
	// holds when staged. The deleted flag is cleared: an update of a
	// deleted resource restores it.
	Update(e E)
	// Delete flags e as deleted and stages the guarded write.
	Delete(e E)

	GetLatestRecord(ctx context.Context, id int64) (*Record[E], error)
	AddCreateRecord(e E) *Record[E]
	AddUpdateRecord(e E, prior *Record[E]) *Record[E]
	AddDeleteRecord(e E, prior *Record[E]) *Record[E]

	GetRecord(ctx context.Context, recordID int64) (*Record[E], error)
	ListRecords(ctx context.Context, id int64) ([]*Record[E], error)
	ListAllRecords(ctx context.Context, limit, offset int) ([]*Record[E], int, error)

	Save(ctx context.Context) error
	Close()
}

// Opener creates the repository for one request.
type Opener[E Entity[E]] func(ctx context.Context) (Repository[E], error)
