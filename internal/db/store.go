// Package db provides persistence for recruiter requests behind a single repository interface.
package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jonathan/kredible/internal/config"
	"github.com/jonathan/kredible/internal/types"
)

var (
	// ErrNotFound is returned by CompletePending when no record has the given id.
	ErrNotFound = errors.New("recruiter request not found")
	// ErrAlreadyCompleted is returned by CompletePending when the candidate already submitted.
	ErrAlreadyCompleted = errors.New("recruiter request already completed")
)

// Store is the repository for recruiter requests. Lookups that find nothing
// return a nil record and a nil error. Implementations do not validate
// records; callers own the invariants.
type Store interface {
	// Save inserts or replaces a record by ID.
	Save(ctx context.Context, req *types.RecruiterRequest) error
	// FindByToken returns the record holding token, or nil.
	FindByToken(ctx context.Context, token string) (*types.RecruiterRequest, error)
	// ListAll returns every stored record, oldest first.
	ListAll(ctx context.Context) ([]*types.RecruiterRequest, error)
	// ListCompleted returns records with status completed and candidate data present.
	ListCompleted(ctx context.Context) ([]*types.RecruiterRequest, error)
	// CompletePending attaches candidate data and flips status to completed,
	// only if the record is still pending.
	CompletePending(ctx context.Context, id string, data *types.CandidateData) error
	// Delete removes a record. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
	// Clear removes every record.
	Clear(ctx context.Context) error
	// Close releases underlying resources.
	Close() error
}

// Open returns the store selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory, "":
		return NewMemoryStore(cfg.MirrorPath()), nil
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// sortByCreated orders records oldest first, breaking ties by ID.
func sortByCreated(records []*types.RecruiterRequest) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
