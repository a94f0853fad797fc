package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
	"github.com/inkpact/inkpact/backend/go-services/internal/agreement/repository"
	"github.com/inkpact/inkpact/backend/go-services/internal/pdf"
	"github.com/inkpact/inkpact/backend/go-services/pkg/logger"
)

var (
	ErrNotFound      = errors.New("agreement not found")
	ErrValidation    = errors.New("invalid agreement input")
	ErrNotAParty     = errors.New("requester is not a party to the agreement")
	ErrAlreadySigned = errors.New("agreement already signed by this email")
	ErrNotCreator    = errors.New("only the agreement creator may remove signatures")
)

// casAttempts bounds the reload-and-retry loop on version conflicts.
const casAttempts = 5

// Inviter dispatches invitation messages to invitee addresses. Failures are
// the dispatcher's to log; they never surface here.
type Inviter interface {
	SendInvitations(ctx context.Context, a *agreement.Agreement)
}

// Archiver stores a rendered agreement PDF, keyed by agreement id.
type Archiver interface {
	StoreAgreementPDF(ctx context.Context, id string, data []byte) error
}

// Service implements the agreement operations: create, sign, remove-signature
// and the listing/search queries. Status is always recomputed through
// agreement.ComputeStatus, never set directly.
type Service struct {
	repo     repository.Repository
	inviter  Inviter
	archiver Archiver
}

// NewService builds a Service. inviter and archiver may be nil; the matching
// side effects are skipped.
func NewService(repo repository.Repository, inviter Inviter, archiver Archiver) *Service {
	return &Service{repo: repo, inviter: inviter, archiver: archiver}
}

// CreateParams carries the caller-supplied fields for a new agreement. The
// creator identity comes from the authenticated request, never the body.
type CreateParams struct {
	Title         string
	Content       string
	CreatorID     string
	CreatorEmail  string
	InviteeEmails []string
	// InitialSignature optionally self-signs at creation; it must carry the
	// creator's email.
	InitialSignature *agreement.Signature
}

func (s *Service) Create(ctx context.Context, p CreateParams) (*agreement.Agreement, error) {
	if p.Title == "" || p.Content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}
	if p.CreatorID == "" || p.CreatorEmail == "" {
		return nil, fmt.Errorf("%w: creator identity missing", ErrValidation)
	}

	var signedBy []agreement.Signature
	if p.InitialSignature != nil {
		sig := *p.InitialSignature
		if sig.Email == "" {
			sig.Email = p.CreatorEmail
		}
		if sig.Email != p.CreatorEmail {
			return nil, fmt.Errorf("%w: initial signature must belong to the creator", ErrValidation)
		}
		if err := validateSignature(&sig); err != nil {
			return nil, err
		}
		sig.SignedAt = time.Now().UTC()
		signedBy = []agreement.Signature{sig}
	}

	a := &agreement.Agreement{
		Title:         p.Title,
		Content:       p.Content,
		CreatorID:     p.CreatorID,
		CreatorEmail:  p.CreatorEmail,
		InviteeEmails: dedup(p.InviteeEmails),
		SignedBy:      signedBy,
		Status:        agreement.ComputeStatus(p.CreatorEmail, p.InviteeEmails, signedBy),
	}
	if _, err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	// best-effort invitations; creation already succeeded
	if s.inviter != nil && len(a.InviteeEmails) > 0 {
		s.inviter.SendInvitations(ctx, a)
	}
	return a, nil
}

// Sign appends the requester's signature and recomputes status atomically.
// requesterEmail is the verified identity; sig.Email must match it.
func (s *Service) Sign(ctx context.Context, id, requesterEmail string, sig agreement.Signature) (*agreement.Agreement, error) {
	if err := validateSignature(&sig); err != nil {
		return nil, err
	}
	if sig.Email != requesterEmail {
		return nil, fmt.Errorf("%w: signature email does not match the authenticated identity", ErrNotAParty)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		a, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, mapRepoErr(err)
		}
		if !a.IsParty(sig.Email) {
			return nil, ErrNotAParty
		}
		if a.SignatureFor(sig.Email) != nil {
			return nil, ErrAlreadySigned
		}

		sig.SignedAt = time.Now().UTC()
		next := append(append([]agreement.Signature(nil), a.SignedBy...), sig)
		status := agreement.ComputeStatus(a.CreatorEmail, a.InviteeEmails, next)

		err = s.repo.ReplaceSigned(ctx, id, a.Version, next, status)
		if errors.Is(err, repository.ErrStale) {
			continue
		}
		if err != nil {
			return nil, mapRepoErr(err)
		}

		a.SignedBy = next
		a.Status = status
		a.Version++
		if status == agreement.StatusFullySigned {
			s.archive(ctx, a)
		}
		return a, nil
	}
	return nil, fmt.Errorf("sign agreement %s: too many concurrent updates", id)
}

// RemoveSignature filters out the signature for email and recomputes status.
// Only the creator may perform this correction.
func (s *Service) RemoveSignature(ctx context.Context, id, requesterID, email string) (*agreement.Agreement, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	for attempt := 0; attempt < casAttempts; attempt++ {
		a, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, mapRepoErr(err)
		}
		if a.CreatorID != requesterID {
			return nil, ErrNotCreator
		}

		next := make([]agreement.Signature, 0, len(a.SignedBy))
		for _, s := range a.SignedBy {
			if s.Email != email {
				next = append(next, s)
			}
		}
		status := agreement.ComputeStatus(a.CreatorEmail, a.InviteeEmails, next)

		err = s.repo.ReplaceSigned(ctx, id, a.Version, next, status)
		if errors.Is(err, repository.ErrStale) {
			continue
		}
		if err != nil {
			return nil, mapRepoErr(err)
		}

		a.SignedBy = next
		a.Status = status
		a.Version++
		return a, nil
	}
	return nil, fmt.Errorf("remove signature on %s: too many concurrent updates", id)
}

func (s *Service) Get(ctx context.Context, id string) (*agreement.Agreement, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return a, nil
}

func (s *Service) MyAgreements(ctx context.Context, creatorID string) ([]*agreement.Agreement, error) {
	return s.repo.FindByCreator(ctx, creatorID)
}

func (s *Service) PendingToSign(ctx context.Context, email string) ([]*agreement.Agreement, error) {
	return s.repo.FindPendingForInvitee(ctx, email)
}

func (s *Service) FullySignedInvolving(ctx context.Context, email string) ([]*agreement.Agreement, error) {
	return s.repo.FindFullySignedInvolving(ctx, email)
}

func (s *Service) Search(ctx context.Context, title string) ([]*agreement.Agreement, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required for search", ErrValidation)
	}
	return s.repo.SearchByTitle(ctx, title)
}

// archive renders and stores the fully-signed PDF, best-effort.
func (s *Service) archive(ctx context.Context, a *agreement.Agreement) {
	if s.archiver == nil {
		return
	}
	creatorSig := a.SignatureFor(a.CreatorEmail)
	var recipientSig *agreement.Signature
	for i := range a.SignedBy {
		if a.SignedBy[i].Email != a.CreatorEmail {
			recipientSig = &a.SignedBy[i]
			break
		}
	}
	data, err := pdf.Render(a, creatorSig, recipientSig)
	if err != nil {
		logger.Warnf("archive render for agreement %s failed: %v", a.ID, err)
		return
	}
	if err := s.archiver.StoreAgreementPDF(ctx, a.ID, data); err != nil {
		logger.Warnf("archive upload for agreement %s failed: %v", a.ID, err)
	}
}

func validateSignature(sig *agreement.Signature) error {
	if sig.Email == "" || sig.Value == "" {
		return fmt.Errorf("%w: email, type and value are required", ErrValidation)
	}
	switch sig.Type {
	case agreement.SignatureTyped:
	case agreement.SignatureImage:
		if _, _, err := agreement.ParseImageValue(sig.Value); err != nil {
			if errors.Is(err, agreement.ErrUnsupportedImageFormat) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	default:
		// includes the legacy "drawn" variant
		return fmt.Errorf("%w: invalid signature type %q", ErrValidation, sig.Type)
	}
	return nil
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
