package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
)

func testAgreement() *agreement.Agreement {
	return &agreement.Agreement{
		ID:            "64f0c2a9e13b4a0001a1b2c3",
		Title:         "NDA",
		CreatorEmail:  "a@x.com",
		InviteeEmails: []string{"b@x.com", "c@x.com"},
	}
}

func TestSendInvitations(t *testing.T) {
	type capture struct {
		auth           string
		idempotencyKey string
		body           map[string]interface{}
	}
	var mu sync.Mutex
	var got []capture

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		got = append(got, capture{
			auth:           r.Header.Get("Authorization"),
			idempotencyKey: r.Header.Get("Idempotency-Key"),
			body:           body,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher("test-key", "noreply@inkpact.io", "http://localhost:3000")
	d.endpoint = srv.URL

	d.SendInvitations(context.Background(), testAgreement())

	require.Len(t, got, 2)
	recipients := map[string]bool{}
	keys := map[string]bool{}
	for _, c := range got {
		assert.Equal(t, "Bearer test-key", c.auth)
		assert.NotEmpty(t, c.idempotencyKey)
		keys[c.idempotencyKey] = true

		to, ok := c.body["to"].([]interface{})
		require.True(t, ok)
		require.Len(t, to, 1)
		recipients[to[0].(string)] = true

		html, _ := c.body["html"].(string)
		assert.Contains(t, html, "64f0c2a9e13b4a0001a1b2c3")
	}
	assert.True(t, recipients["b@x.com"])
	assert.True(t, recipients["c@x.com"])
	assert.Len(t, keys, 2, "idempotency keys must be unique per send")
}

func TestSendInvitationsFailuresDoNotPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher("test-key", "noreply@inkpact.io", "http://localhost:3000")
	d.endpoint = srv.URL

	// must return normally even though every send fails
	d.SendInvitations(context.Background(), testAgreement())
}

func TestSendInvitationsWithoutAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an API key")
	}))
	defer srv.Close()

	d := NewDispatcher("", "noreply@inkpact.io", "http://localhost:3000")
	d.endpoint = srv.URL

	d.SendInvitations(context.Background(), testAgreement())
}
