package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpact/inkpact/backend/go-services/internal/config"
	"github.com/inkpact/inkpact/backend/go-services/internal/models"
	"github.com/inkpact/inkpact/backend/go-services/internal/sessions"
	"github.com/inkpact/inkpact/backend/go-services/internal/users"
)

// in-memory user repo for handler tests
type memUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	nextID  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.nextID++
	u.ID = string(rune('a' + m.nextID))
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return u, nil
}
func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.byEmail[email], nil
}
func (m *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.byID[id], nil
}

type memSessionRepo struct {
	store map[string]*sessions.Session
}

func (f *memSessionRepo) Create(ctx context.Context, s *sessions.Session) error {
	if f.store == nil {
		f.store = map[string]*sessions.Session{}
	}
	f.store[s.RefreshToken] = s
	return nil
}
func (f *memSessionRepo) GetByRefresh(ctx context.Context, refresh string) (*sessions.Session, error) {
	return f.store[refresh], nil
}
func (f *memSessionRepo) DeleteByRefresh(ctx context.Context, refresh string) error {
	delete(f.store, refresh)
	return nil
}

func newAuthRouter(t *testing.T) (*gin.Engine, *memSessionRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	sessRepo := &memSessionRepo{}
	h := NewAuthHandler(cfg, users.NewService(newMemUserRepo()), sessions.NewService(sessRepo))
	r := gin.New()
	h.Register(r.Group("/api"))
	return r, sessRepo
}

func postJSON(r *gin.Engine, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine) (accessToken, refreshToken string) {
	t.Helper()
	w := postJSON(r, "/api/auth/register", gin.H{"fullName": "Alice", "email": "a@x.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = postJSON(r, "/api/auth/login", gin.H{"email": "a@x.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	return resp.AccessToken, resp.RefreshToken
}

func TestRegisterAndLogin(t *testing.T) {
	r, _ := newAuthRouter(t)

	access, refresh := registerAndLogin(t, r)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	// duplicate registration conflicts
	w := postJSON(r, "/api/auth/register", gin.H{"fullName": "Alice", "email": "a@x.com", "password": "other"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// wrong password
	w = postJSON(r, "/api/auth/login", gin.H{"email": "a@x.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// unknown account
	w = postJSON(r, "/api/auth/login", gin.H{"email": "nobody@x.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh(t *testing.T) {
	r, _ := newAuthRouter(t)
	_, refresh := registerAndLogin(t, r)

	w := postJSON(r, "/api/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)

	w = postJSON(r, "/api/auth/refresh", gin.H{"refresh_token": "bogus"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	sessions.SetBlacklistClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer sessions.SetBlacklistClient(nil)

	r, sessRepo := newAuthRouter(t)
	access, refresh := registerAndLogin(t, r)

	w := postJSON(r, "/api/auth/logout", gin.H{"refresh_token": refresh}, map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// refresh session is gone
	assert.NotContains(t, sessRepo.store, refresh)

	// access token was blacklisted for its remaining lifetime
	revoked, err := sessions.IsAccessTokenBlacklisted(context.Background(), access)
	require.NoError(t, err)
	assert.True(t, revoked)
}
