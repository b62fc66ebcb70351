package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveInitials(t *testing.T) {
	cases := map[string]string{
		"jane doe":           "JD",
		"  Mary  Ann Smith ": "MA",
		"cher":               "C",
		"":                   "",
		"élodie brun":        "ÉB",
	}
	for name, want := range cases {
		assert.Equal(t, want, DeriveInitials(name), name)
	}
}

func TestScheduleScanDefaultsMissingDays(t *testing.T) {
	var s Schedule
	require.NoError(t, s.Scan([]byte(`{"monday":true,"friday":true}`)))
	assert.True(t, s.IsScheduled("monday"))
	assert.False(t, s.IsScheduled("tuesday"))
	assert.True(t, s.IsScheduled("friday"))
	assert.False(t, s.IsScheduled("saturday"))
	assert.True(t, s.Any())

	require.NoError(t, s.Scan(nil))
	assert.False(t, s.Any())
	assert.Error(t, s.Scan(42))
}

func TestPaymentStatusRoundTrip(t *testing.T) {
	p := PaymentStatus{"January 2025": FundingActive}
	raw, err := p.Value()
	require.NoError(t, err)

	var out PaymentStatus
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, FundingActive, out["January 2025"])

	require.NoError(t, out.Scan(nil))
	assert.NotNil(t, out)
	assert.Empty(t, out)

	assert.True(t, FundingInactive.Valid())
	assert.False(t, FundingState("Maybe").Valid())
}
