package collector

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)
)

// Anonymizer applies the privacy configuration to raw identifiers and chat
// text. The collector is the only component that sees raw identifiers;
// everything downstream receives the pseudonym.
type Anonymizer struct {
	anonymizeUserIDs bool
	stripPII         bool
	salt             string
}

// NewAnonymizer creates an anonymizer from the injected privacy config.
func NewAnonymizer(privacy config.Privacy) *Anonymizer {
	return &Anonymizer{
		anonymizeUserIDs: privacy.AnonymizeUserIDs,
		stripPII:         privacy.StripPII,
		salt:             privacy.AnonymizationSalt,
	}
}

// UserID returns the deterministic pseudonymous ID for a raw user ID. The
// same raw ID always maps to the same pseudonym so profiles stay coherent.
func (a *Anonymizer) UserID(userID string) string {
	if !a.anonymizeUserIDs || userID == "" {
		return userID
	}

	hash := sha256.Sum256([]byte(a.salt + "|" + userID))
	return "anon_" + hex.EncodeToString(hash[:])[:32]
}

// ScrubText redacts email addresses and phone numbers from free text when
// PII stripping is enabled.
func (a *Anonymizer) ScrubText(text string) string {
	if !a.stripPII || text == "" {
		return text
	}

	text = emailPattern.ReplaceAllString(text, "[redacted]")
	text = phonePattern.ReplaceAllString(text, "[redacted]")
	return text
}
