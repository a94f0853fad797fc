package agreement

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the derived lifecycle state of an agreement. It is written only by
// ComputeStatus; no other code path may set it independently.
type Status string

const (
	StatusPending         Status = "pending"
	StatusPartiallySigned Status = "partially-signed"
	StatusFullySigned     Status = "fully-signed"
)

// SignatureType is the wire-level signature kind. The legacy "drawn" variant
// from older stored documents is rejected by validation.
type SignatureType string

const (
	SignatureTyped SignatureType = "typed"
	SignatureImage SignatureType = "image"
)

// Signature records one party's acceptance of an agreement.
type Signature struct {
	Email    string        `json:"email" bson:"email"`
	Type     SignatureType `json:"type" bson:"type"`
	Value    string        `json:"value" bson:"value"`
	SignedAt time.Time     `json:"signedAt" bson:"signedAt"`
}

// Agreement is a titled document with content, a creator, invitees and the
// signatures accumulated over its lifetime. Title, content, creator and the
// invitee list are immutable after creation. Version backs the conditional
// update that keeps concurrent sign operations from losing appends.
type Agreement struct {
	ID            string      `json:"id" bson:"_id,omitempty"`
	Title         string      `json:"title" bson:"title"`
	Content       string      `json:"content" bson:"content"`
	CreatorID     string      `json:"creatorId" bson:"creatorId"`
	CreatorEmail  string      `json:"creatorEmail" bson:"creatorEmail"`
	InviteeEmails []string    `json:"inviteeEmails" bson:"inviteeEmails"`
	SignedBy      []Signature `json:"signedBy" bson:"signedBy"`
	Status        Status      `json:"status" bson:"status"`
	CreatedAt     time.Time   `json:"createdAt" bson:"createdAt"`
	Version       int64       `json:"-" bson:"version"`
}

// SignatureFor returns the signature recorded for the given email, or nil.
func (a *Agreement) SignatureFor(email string) *Signature {
	for i := range a.SignedBy {
		if a.SignedBy[i].Email == email {
			return &a.SignedBy[i]
		}
	}
	return nil
}

// IsParty reports whether the email belongs to the set of authorized parties
// (creator or listed invitee).
func (a *Agreement) IsParty(email string) bool {
	if email == "" {
		return false
	}
	if email == a.CreatorEmail {
		return true
	}
	for _, e := range a.InviteeEmails {
		if e == email {
			return true
		}
	}
	return false
}

// ImageFormat identifies the raster format of an image signature payload.
// Values match the type strings the PDF library expects.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "PNG"
	ImageFormatJPEG ImageFormat = "JPEG"
)

// MaxImageBytes caps decoded image signature payloads at 2 MB.
const MaxImageBytes = 2 << 20

var ErrUnsupportedImageFormat = errors.New("unsupported signature image format")

// ParseImageValue decodes an image signature value. Values are data URIs of
// the form "data:image/png;base64,..." or "data:image/jpeg;base64,...". Any
// other declared type yields ErrUnsupportedImageFormat.
func ParseImageValue(value string) (ImageFormat, []byte, error) {
	var format ImageFormat
	var payload string
	switch {
	case strings.HasPrefix(value, "data:image/png;base64,"):
		format = ImageFormatPNG
		payload = strings.TrimPrefix(value, "data:image/png;base64,")
	case strings.HasPrefix(value, "data:image/jpeg;base64,"):
		format = ImageFormatJPEG
		payload = strings.TrimPrefix(value, "data:image/jpeg;base64,")
	default:
		return "", nil, ErrUnsupportedImageFormat
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode signature image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", nil, fmt.Errorf("signature image exceeds %d bytes", MaxImageBytes)
	}
	return format, data, nil
}
