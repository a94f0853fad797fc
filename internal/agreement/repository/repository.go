package repository

import (
	"context"
	"errors"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
)

var (
	ErrNotFound = errors.New("agreement not found")
	// ErrStale signals a lost compare-and-swap race; callers reload and retry.
	ErrStale = errors.New("agreement was modified concurrently")
)

// Repository provides agreement persistence. Listings are ordered newest-first.
type Repository interface {
	Create(ctx context.Context, a *agreement.Agreement) (string, error)
	FindByID(ctx context.Context, id string) (*agreement.Agreement, error)
	FindByCreator(ctx context.Context, creatorID string) ([]*agreement.Agreement, error)
	// FindPendingForInvitee returns agreements where email is an invitee that
	// has not signed yet.
	FindPendingForInvitee(ctx context.Context, email string) ([]*agreement.Agreement, error)
	// FindFullySignedInvolving returns fully-signed agreements where email was
	// invited, signed, and is not the creator.
	FindFullySignedInvolving(ctx context.Context, email string) ([]*agreement.Agreement, error)
	// SearchByTitle matches a case-insensitive title substring.
	SearchByTitle(ctx context.Context, title string) ([]*agreement.Agreement, error)
	// ReplaceSigned atomically swaps the signature list and status of the
	// agreement, conditional on the stored version matching the given one.
	// Returns ErrStale when the version moved underneath the caller.
	ReplaceSigned(ctx context.Context, id string, version int64, signedBy []agreement.Signature, status agreement.Status) error
}
