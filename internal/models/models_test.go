package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorseStatus(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected string
	}{
		{"fail beats warning", StatusFail, StatusWarning, StatusFail},
		{"fail beats pass", StatusPass, StatusFail, StatusFail},
		{"warning beats pass", StatusWarning, StatusPass, StatusWarning},
		{"pass vs pass", StatusPass, StatusPass, StatusPass},
		{"order does not matter", StatusWarning, StatusFail, StatusFail},
		{"unknown ranks below pass", "UNKNOWN", StatusPass, StatusPass},
		{"unknown loses in either position", StatusPass, "UNKNOWN", StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WorseStatus(tt.a, tt.b))
		})
	}
}

func TestJSONBRoundTrip(t *testing.T) {
	original := JSONB{
		"transaction_id": "abc-123",
		"amount":         15000000.0,
	}

	raw, err := original.Value()
	require.NoError(t, err)

	var decoded JSONB
	require.NoError(t, decoded.Scan(raw))
	assert.Equal(t, "abc-123", decoded["transaction_id"])
	assert.Equal(t, 15000000.0, decoded["amount"])
}

func TestJSONBScanNil(t *testing.T) {
	decoded := JSONB{"stale": true}
	require.NoError(t, decoded.Scan(nil))
	assert.Nil(t, decoded)
}

func TestJSONBValueUnsupportedContent(t *testing.T) {
	j := JSONB{"callback": func() {}}
	_, err := j.Value()
	assert.Error(t, err)
}

func TestSchemaEnumValues(t *testing.T) {
	assert.Equal(t, "SUSPICIOUS", DeviceSuspicious)
	assert.Equal(t, "EXPIRED", AuthStatusExpired)
	assert.Equal(t, "UNVERIFIED", DeviceUnverified)
	assert.Equal(t, "FAILED", AuthStatusFailed)
}
