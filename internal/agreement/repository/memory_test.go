package repository

import (
	"context"
	"testing"
	"time"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
	"github.com/stretchr/testify/require"
)

func newAgreement(title, creatorID, creatorEmail string, invitees ...string) *agreement.Agreement {
	return &agreement.Agreement{
		Title:         title,
		Content:       "content of " + title,
		CreatorID:     creatorID,
		CreatorEmail:  creatorEmail,
		InviteeEmails: invitees,
		Status:        agreement.StatusPending,
	}
}

func TestMemoryRepo_CreateAndFind(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	id, err := r.Create(ctx, newAgreement("NDA", "u1", "a@x.com", "b@x.com"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "NDA", got.Title)
	require.EqualValues(t, 1, got.Version)

	_, err = r.FindByID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_FindByCreator_NewestFirst(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	first := newAgreement("First", "u1", "a@x.com")
	_, err := r.Create(ctx, first)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second := newAgreement("Second", "u1", "a@x.com")
	_, err = r.Create(ctx, second)
	require.NoError(t, err)
	_, err = r.Create(ctx, newAgreement("Other", "u2", "c@x.com"))
	require.NoError(t, err)

	list, err := r.FindByCreator(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Second", list[0].Title)
	require.Equal(t, "First", list[1].Title)
}

func TestMemoryRepo_PendingAndFullySignedQueries(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	a := newAgreement("Pending one", "u1", "a@x.com", "b@x.com")
	id, err := r.Create(ctx, a)
	require.NoError(t, err)

	pending, err := r.FindPendingForInvitee(ctx, "b@x.com")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// b signs; the agreement leaves b's pending queue
	signed := []agreement.Signature{
		{Email: "a@x.com", Type: agreement.SignatureTyped, Value: "Alice", SignedAt: time.Now()},
		{Email: "b@x.com", Type: agreement.SignatureTyped, Value: "Bob", SignedAt: time.Now()},
	}
	require.NoError(t, r.ReplaceSigned(ctx, id, 1, signed, agreement.StatusFullySigned))

	pending, err = r.FindPendingForInvitee(ctx, "b@x.com")
	require.NoError(t, err)
	require.Empty(t, pending)

	involved, err := r.FindFullySignedInvolving(ctx, "b@x.com")
	require.NoError(t, err)
	require.Len(t, involved, 1)

	// the creator is excluded from the invitee listing
	involved, err = r.FindFullySignedInvolving(ctx, "a@x.com")
	require.NoError(t, err)
	require.Empty(t, involved)
}

func TestMemoryRepo_SearchByTitle_CaseInsensitive(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	_, err := r.Create(ctx, newAgreement("Mutual NDA", "u1", "a@x.com"))
	require.NoError(t, err)
	_, err = r.Create(ctx, newAgreement("Lease", "u1", "a@x.com"))
	require.NoError(t, err)

	got, err := r.SearchByTitle(ctx, "nda")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Mutual NDA", got[0].Title)

	got, err = r.SearchByTitle(ctx, "zzz")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryRepo_ReplaceSigned_VersionConflict(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	id, err := r.Create(ctx, newAgreement("Versioned", "u1", "a@x.com", "b@x.com"))
	require.NoError(t, err)

	sig := []agreement.Signature{{Email: "a@x.com", Type: agreement.SignatureTyped, Value: "Alice"}}
	require.NoError(t, r.ReplaceSigned(ctx, id, 1, sig, agreement.StatusPartiallySigned))

	// the same version again loses
	err = r.ReplaceSigned(ctx, id, 1, sig, agreement.StatusPartiallySigned)
	require.ErrorIs(t, err, ErrStale)

	err = r.ReplaceSigned(ctx, "missing", 1, sig, agreement.StatusPending)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.Version)
	require.Equal(t, agreement.StatusPartiallySigned, got.Status)
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	id, err := r.Create(ctx, newAgreement("Copy", "u1", "a@x.com", "b@x.com"))
	require.NoError(t, err)

	got, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	got.Title = "mutated"
	got.InviteeEmails[0] = "evil@x.com"

	again, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Copy", again.Title)
	require.Equal(t, "b@x.com", again.InviteeEmails[0])
}
