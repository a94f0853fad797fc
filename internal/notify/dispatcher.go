// Package notify delivers agreement invitation emails through the Resend
// HTTP API. Delivery is best-effort: failures are logged and counted, never
// returned to the signing flow.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
	"github.com/inkpact/inkpact/backend/go-services/pkg/logger"
	"github.com/inkpact/inkpact/backend/go-services/pkg/metrics"
)

const maxConcurrentSends = 4

type Dispatcher struct {
	apiKey      string
	fromAddress string
	frontendURL string
	endpoint    string
	client      *http.Client
}

// NewDispatcher builds a Dispatcher. With an empty apiKey every send is a
// logged no-op, which keeps local development working without credentials.
func NewDispatcher(apiKey, fromAddress, frontendURL string) *Dispatcher {
	return &Dispatcher{
		apiKey:      apiKey,
		fromAddress: fromAddress,
		frontendURL: frontendURL,
		endpoint:    "https://api.resend.com/emails",
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// SendInvitations mails every invitee of the agreement. Sends run
// concurrently, one request per recipient, each with its own idempotency key
// so provider-side retries cannot duplicate a message.
func (d *Dispatcher) SendInvitations(ctx context.Context, a *agreement.Agreement) {
	if d.apiKey == "" {
		logger.Infof("email API key not configured, skipping %d invitation(s) for agreement %s", len(a.InviteeEmails), a.ID)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)
	for _, to := range a.InviteeEmails {
		to := to
		g.Go(func() error {
			if err := d.send(ctx, to, a); err != nil {
				logger.Warnf("invitation to %s for agreement %s failed: %v", to, a.ID, err)
				metrics.InvitationsDispatched.WithLabelValues("error").Inc()
				return nil
			}
			metrics.InvitationsDispatched.WithLabelValues("sent").Inc()
			return nil
		})
	}
	g.Wait()
}

func (d *Dispatcher) send(ctx context.Context, to string, a *agreement.Agreement) error {
	signURL := fmt.Sprintf("%s/sign-agreements?agreement=%s", d.frontendURL, a.ID)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body>
    <div style="max-width: 600px; margin: 0 auto; padding: 20px; font-family: sans-serif;">
        <h2>You have been invited to sign an agreement</h2>
        <p><strong>%s</strong> has invited you to review and sign <strong>%q</strong>.</p>
        <a href="%s" style="display: inline-block; background: #2b6cb0; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">Review and sign</a>
        <p style="color: #718096; margin-top: 30px;">If you were not expecting this invitation you can ignore this message.</p>
    </div>
</body>
</html>
	`, a.CreatorEmail, a.Title, signURL)

	payload := map[string]interface{}{
		"from":    fmt.Sprintf("Inkpact <%s>", d.fromAddress),
		"to":      []string{to},
		"subject": fmt.Sprintf("%s invited you to sign %q", a.CreatorEmail, a.Title),
		"html":    htmlBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", d.apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send email: status %d", resp.StatusCode)
	}
	return nil
}
