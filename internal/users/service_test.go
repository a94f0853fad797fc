package users

import (
	"context"
	"testing"

	"github.com/inkpact/inkpact/backend/go-services/internal/models"
	"github.com/stretchr/testify/require"
)

// in-memory repo for service tests
type memRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	nextID  int
}

func newMemRepo() *memRepo {
	return &memRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (m *memRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.nextID++
	u.ID = string(rune('a' + m.nextID))
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return u, nil
}
func (m *memRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.byEmail[email], nil
}
func (m *memRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.byID[id], nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alice Doe", "a@x.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEqual(t, "s3cret", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "a@x.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@x.com", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "a@x.com", "pw1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Alice Again", "a@x.com", "pw2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_MissingFields(t *testing.T) {
	svc := NewService(newMemRepo())
	_, err := svc.Register(context.Background(), "X", "", "pw")
	require.Error(t, err)
	_, err = svc.Register(context.Background(), "X", "x@x.com", "")
	require.Error(t, err)
}
