package dataquality

import (
	"fmt"
	"math"
	"time"

	"github.com/Ne4nf/TimoBank/internal/models"
)

// Validation patterns, shared between check queries and tests.
const (
	// CCCDPattern matches a Vietnamese citizen ID: exactly 12 digits.
	CCCDPattern = `^[0-9]{12}$`
	// PhonePattern matches Vietnamese mobile numbers by carrier prefix.
	PhonePattern = `^(09|08|07|05|03)[0-9]{8}$`
	// EmailPattern is a pragmatic email shape check.
	EmailPattern = `^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`
)

// ConsistencyTolerance is the maximum allowed absolute difference, in
// VND, between a stored daily summary total and the recomputed total.
// The comparison is strict: a difference of exactly this value passes.
const ConsistencyTolerance = 1000.0

// Monetary thresholds from the compliance rulebook, in VND.
const (
	HighValueThreshold = 10000000.0
	DailyAuthThreshold = 20000000.0
)

// statusForAffected maps an affected row count to a check status.
// Zero affected rows is always a PASS; otherwise the check's
// configured severity applies.
func statusForAffected(affected int, severity string) string {
	if affected == 0 {
		return models.StatusPass
	}
	return severity
}

// dupGroup is one duplicated value and how many rows share it
type dupGroup struct {
	Value string
	Count int
}

// uniquenessTotals aggregates duplicate groups into the affected row
// count (every row carrying a duplicated value) and the number of
// distinct duplicated values.
func uniquenessTotals(groups []dupGroup) (affected, duplicateValues int) {
	for _, g := range groups {
		affected += g.Count
	}
	return affected, len(groups)
}

// exceedsTolerance reports whether a summary difference is outside the
// allowed tolerance.
func exceedsTolerance(diff float64) bool {
	return math.Abs(diff) > ConsistencyTolerance
}

// checkedAt stamps a result with its execution time
func checkedAt() string {
	return time.Now().Format(time.RFC3339)
}

// queryFailureResult downgrades a failed check query to a WARNING so
// one broken rule never aborts the run.
func queryFailureResult(checkName string, err error) models.CheckResult {
	return models.CheckResult{
		CheckName: checkName,
		Status:    models.StatusWarning,
		Message:   fmt.Sprintf("Check could not be executed: %v", err),
		Timestamp: checkedAt(),
	}
}

// countResult builds a result for a simple affected-row-count check
func countResult(checkName string, affected int, severity, failMessage, passMessage string) models.CheckResult {
	result := models.CheckResult{
		CheckName:     checkName,
		Status:        statusForAffected(affected, severity),
		AffectedCount: affected,
		Timestamp:     checkedAt(),
	}
	if affected == 0 {
		result.Message = passMessage
	} else {
		result.Message = fmt.Sprintf(failMessage, affected)
	}
	return result
}
