package dataquality

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ne4nf/TimoBank/internal/models"
)

func TestStatusForAffected(t *testing.T) {
	tests := []struct {
		name     string
		affected int
		severity string
		want     string
	}{
		{"zero affected is always pass", 0, models.StatusFail, models.StatusPass},
		{"zero affected with warning severity", 0, models.StatusWarning, models.StatusPass},
		{"affected rows fail", 3, models.StatusFail, models.StatusFail},
		{"affected rows warn", 1, models.StatusWarning, models.StatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForAffected(tt.affected, tt.severity))
		})
	}
}

func TestUniquenessTotals(t *testing.T) {
	tests := []struct {
		name           string
		groups         []dupGroup
		wantAffected   int
		wantDuplicates int
	}{
		{"no duplicates", nil, 0, 0},
		{"single group", []dupGroup{{Value: "a", Count: 2}}, 2, 1},
		{"multiple groups sum all member rows", []dupGroup{
			{Value: "a", Count: 3},
			{Value: "b", Count: 2},
			{Value: "c", Count: 5},
		}, 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			affected, duplicates := uniquenessTotals(tt.groups)
			assert.Equal(t, tt.wantAffected, affected)
			assert.Equal(t, tt.wantDuplicates, duplicates)
		})
	}
}

func TestExceedsTolerance(t *testing.T) {
	assert.False(t, exceedsTolerance(0))
	assert.False(t, exceedsTolerance(999.99))
	assert.False(t, exceedsTolerance(1000), "exact tolerance is allowed")
	assert.False(t, exceedsTolerance(-1000))
	assert.True(t, exceedsTolerance(1000.01))
	assert.True(t, exceedsTolerance(-1000.01))
}

func TestValidationPatterns(t *testing.T) {
	cccd := regexp.MustCompile(CCCDPattern)
	phone := regexp.MustCompile(PhonePattern)
	email := regexp.MustCompile(EmailPattern)

	t.Run("cccd", func(t *testing.T) {
		assert.True(t, cccd.MatchString("012345678901"))
		assert.False(t, cccd.MatchString("01234567890"), "11 digits")
		assert.False(t, cccd.MatchString("0123456789012"), "13 digits")
		assert.False(t, cccd.MatchString("01234567890a"))
	})

	t.Run("phone", func(t *testing.T) {
		for _, valid := range []string{"0912345678", "0887654321", "0712345678", "0512345678", "0312345678"} {
			assert.True(t, phone.MatchString(valid), valid)
		}
		assert.False(t, phone.MatchString("0112345678"), "unknown prefix")
		assert.False(t, phone.MatchString("091234567"), "too short")
		assert.False(t, phone.MatchString("09123456789"), "too long")
	})

	t.Run("email", func(t *testing.T) {
		assert.True(t, email.MatchString("user@example.com"))
		assert.True(t, email.MatchString("first.last+tag@sub.domain.vn"))
		assert.False(t, email.MatchString("no-at-sign"))
		assert.False(t, email.MatchString("user@domain"))
	})
}

func TestQueryFailureResult(t *testing.T) {
	cause := errors.New("relation does not exist")
	result := queryFailureResult("null_check_customers_email", &QueryError{
		Check: "null_check_customers_email",
		Err:   cause,
	})

	assert.Equal(t, models.StatusWarning, result.Status)
	assert.Equal(t, "null_check_customers_email", result.CheckName)
	assert.Contains(t, result.Message, "could not be executed")
	assert.Zero(t, result.AffectedCount)
	assert.NotEmpty(t, result.Timestamp)
}

func TestCountResult(t *testing.T) {
	pass := countResult("null_check_customers_email", 0, models.StatusFail,
		"Found %d NULL values", "No NULL values")
	require.Equal(t, models.StatusPass, pass.Status)
	assert.Equal(t, "No NULL values", pass.Message)

	fail := countResult("null_check_customers_email", 7, models.StatusFail,
		"Found %d NULL values", "No NULL values")
	require.Equal(t, models.StatusFail, fail.Status)
	assert.Equal(t, 7, fail.AffectedCount)
	assert.Equal(t, "Found 7 NULL values", fail.Message)
	assert.NotEmpty(t, fail.Timestamp)
}

func TestQueryErrorUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	qe := &QueryError{Check: "fk_integrity_devices_customers", Err: cause}
	assert.ErrorIs(t, qe, cause)

	ce := &ConnectivityError{Err: cause}
	assert.ErrorIs(t, ce, cause)
}
