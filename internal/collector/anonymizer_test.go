package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
)

func TestAnonymizer_UserID_Deterministic(t *testing.T) {
	a := NewAnonymizer(config.Privacy{AnonymizeUserIDs: true, AnonymizationSalt: "salt-a"})

	first := a.UserID("user-123")
	second := a.UserID("user-123")
	other := a.UserID("user-456")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.NotContains(t, first, "user-123")
	assert.Contains(t, first, "anon_")
}

func TestAnonymizer_UserID_SaltChangesPseudonym(t *testing.T) {
	a := NewAnonymizer(config.Privacy{AnonymizeUserIDs: true, AnonymizationSalt: "salt-a"})
	b := NewAnonymizer(config.Privacy{AnonymizeUserIDs: true, AnonymizationSalt: "salt-b"})

	assert.NotEqual(t, a.UserID("user-123"), b.UserID("user-123"))
}

func TestAnonymizer_UserID_Disabled(t *testing.T) {
	a := NewAnonymizer(config.Privacy{AnonymizeUserIDs: false})

	assert.Equal(t, "user-123", a.UserID("user-123"))
}

func TestAnonymizer_ScrubText(t *testing.T) {
	a := NewAnonymizer(config.Privacy{StripPII: true})

	scrubbed := a.ScrubText("reach me at jane.doe+offers@example.co.uk or +1 (555) 123-4567 anytime")

	assert.NotContains(t, scrubbed, "jane.doe")
	assert.NotContains(t, scrubbed, "555")
	assert.Contains(t, scrubbed, "[redacted]")
	assert.Contains(t, scrubbed, "anytime")
}

func TestAnonymizer_ScrubText_Disabled(t *testing.T) {
	a := NewAnonymizer(config.Privacy{StripPII: false})

	text := "reach me at jane@example.com"
	assert.Equal(t, text, a.ScrubText(text))
}
