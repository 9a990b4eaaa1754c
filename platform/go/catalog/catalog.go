// Package catalog holds the directory records shared by the filter and matching engines.
// Records are read-only to those engines; persistence owns how they are loaded.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Influencer is a tenant-scoped directory profile.
type Influencer struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Handle         string
	Name           string
	Platform       string
	Followers      *int64
	EngagementRate *float64 // percentage on a 0-100 scale

	Bio      *string
	Topics   *string // comma-joined free text
	Country  *string
	Language *string

	AudienceCountry *string
	AudienceGender  *string
	AudienceAge     *string

	CreatedAt time.Time
}

// Brand is the match corpus owner; its text fields feed the similarity scorer.
type Brand struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	OwnerID        string // auth subject of the client user who owns the brand
	Name           string
	Description    *string
	Industry       *string
	TargetAudience *string
}

// Corpus returns the brand text used for matching: name, description, industry and target audience.
func (b Brand) Corpus() string {
	return joinText(b.Name, deref(b.Description), deref(b.Industry), deref(b.TargetAudience))
}

// Corpus returns the influencer text used for matching: name, handle and platform.
func (i Influencer) Corpus() string {
	return joinText(i.Name, i.Handle, i.Platform)
}

// NormalizeHandle lower-cases and trims a handle, dropping a leading "@".
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

func joinText(parts ...string) string {
	return strings.Join(parts, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
