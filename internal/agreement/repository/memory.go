package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory repository used for unit tests and the standalone
// agreement service when no MongoDB is configured. All methods return copies so
// callers never observe concurrent mutation.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*agreement.Agreement
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*agreement.Agreement)}
}

func clone(a *agreement.Agreement) *agreement.Agreement {
	cp := *a
	cp.InviteeEmails = append([]string(nil), a.InviteeEmails...)
	cp.SignedBy = append([]agreement.Signature(nil), a.SignedBy...)
	return &cp
}

func (m *MemoryRepo) Create(ctx context.Context, a *agreement.Agreement) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	a.CreatedAt = time.Now().UTC()
	a.Version = 1
	m.store[a.ID] = clone(a)
	return a.ID, nil
}

func (m *MemoryRepo) FindByID(ctx context.Context, id string) (*agreement.Agreement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(a), nil
}

func (m *MemoryRepo) FindByCreator(ctx context.Context, creatorID string) ([]*agreement.Agreement, error) {
	return m.filter(func(a *agreement.Agreement) bool {
		return a.CreatorID == creatorID
	}), nil
}

func (m *MemoryRepo) FindPendingForInvitee(ctx context.Context, email string) ([]*agreement.Agreement, error) {
	return m.filter(func(a *agreement.Agreement) bool {
		if !contains(a.InviteeEmails, email) {
			return false
		}
		return a.SignatureFor(email) == nil
	}), nil
}

func (m *MemoryRepo) FindFullySignedInvolving(ctx context.Context, email string) ([]*agreement.Agreement, error) {
	return m.filter(func(a *agreement.Agreement) bool {
		return a.Status == agreement.StatusFullySigned &&
			contains(a.InviteeEmails, email) &&
			a.SignatureFor(email) != nil &&
			a.CreatorEmail != email
	}), nil
}

func (m *MemoryRepo) SearchByTitle(ctx context.Context, title string) ([]*agreement.Agreement, error) {
	needle := strings.ToLower(title)
	return m.filter(func(a *agreement.Agreement) bool {
		return strings.Contains(strings.ToLower(a.Title), needle)
	}), nil
}

func (m *MemoryRepo) ReplaceSigned(ctx context.Context, id string, version int64, signedBy []agreement.Signature, status agreement.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if a.Version != version {
		return ErrStale
	}
	a.SignedBy = append([]agreement.Signature(nil), signedBy...)
	a.Status = status
	a.Version++
	return nil
}

// filter returns copies of matching agreements, newest-first.
func (m *MemoryRepo) filter(keep func(*agreement.Agreement) bool) []*agreement.Agreement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*agreement.Agreement{}
	for _, a := range m.store {
		if keep(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
