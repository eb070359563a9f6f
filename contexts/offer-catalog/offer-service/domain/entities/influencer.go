package entities

import (
	"net/mail"
	"strings"
	"time"
)

type Influencer struct {
	InfluencerID string
	Name         string
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (i Influencer) ValidateBasics() bool {
	name := strings.TrimSpace(i.Name)
	return name != "" && len(name) <= MaxNameLength && IsValidEmail(i.Email)
}

// NormalizeEmail lower-cases the address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail accepts a bare address only, no display name.
func IsValidEmail(email string) bool {
	value := strings.TrimSpace(email)
	if value == "" {
		return false
	}
	parsed, err := mail.ParseAddress(value)
	if err != nil || parsed.Address != value {
		return false
	}
	at := strings.LastIndex(value, "@")
	return at > 0 && strings.Contains(value[at+1:], ".")
}
