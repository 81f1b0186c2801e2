package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User represents an operator account for the read API
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// UserRole enum values
const (
	RoleViewer  = "viewer"
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
)

// Customer represents a bank customer record
type Customer struct {
	CustomerID  uuid.UUID  `json:"customer_id"`
	CCCDNumber  string     `json:"cccd_number"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	PhoneNumber string     `json:"phone_number"`
	Email       string     `json:"email"`
	Address     string     `json:"address,omitempty"`
	KYCStatus   string     `json:"kyc_status"`
	RiskRating  string     `json:"risk_rating"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// KYCStatus enum values
const (
	KYCStatusPending  = "PENDING"
	KYCStatusVerified = "VERIFIED"
	KYCStatusRejected = "REJECTED"
)

// RiskRating enum values
const (
	RiskRatingLow    = "LOW"
	RiskRatingMedium = "MEDIUM"
	RiskRatingHigh   = "HIGH"
)

// BankAccount represents a customer account
type BankAccount struct {
	AccountID     uuid.UUID `json:"account_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	AccountNumber string    `json:"account_number"`
	AccountType   string    `json:"account_type"`
	Balance       float64   `json:"balance"`
	DailyLimit    float64   `json:"daily_limit"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccountType enum values
const (
	AccountTypeChecking = "CHECKING"
	AccountTypeSavings  = "SAVINGS"
	AccountTypeCredit   = "CREDIT"
)

// AccountStatus enum values
const (
	AccountStatusActive    = "ACTIVE"
	AccountStatusSuspended = "SUSPENDED"
	AccountStatusClosed    = "CLOSED"
)

// Device represents a registered customer device
type Device struct {
	DeviceID           uuid.UUID  `json:"device_id"`
	CustomerID         uuid.UUID  `json:"customer_id"`
	DeviceFingerprint  string     `json:"device_fingerprint"`
	DeviceType         string     `json:"device_type"`
	OSInfo             string     `json:"os_info,omitempty"`
	VerificationStatus string     `json:"verification_status"`
	IsTrusted          bool       `json:"is_trusted"`
	FirstSeen          time.Time  `json:"first_seen"`
	LastSeen           *time.Time `json:"last_seen,omitempty"`
}

// DeviceVerificationStatus enum values
const (
	DeviceVerified   = "VERIFIED"
	DeviceUnverified = "UNVERIFIED"
	DeviceSuspicious = "SUSPICIOUS"
)

// AuthenticationLog represents an authentication attempt
type AuthenticationLog struct {
	AuthID     uuid.UUID  `json:"auth_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	DeviceID   *uuid.UUID `json:"device_id,omitempty"`
	AuthMethod string     `json:"auth_method"`
	AuthStatus string     `json:"auth_status"`
	IPAddress  string     `json:"ip_address,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AuthMethod enum values. Biometric and OTP methods count as strong
// authentication for compliance checks.
const (
	AuthMethodPassword  = "PASSWORD"
	AuthMethodPIN       = "PIN"
	AuthMethodBiometric = "BIOMETRIC"
	AuthMethodOTPSMS    = "OTP_SMS"
	AuthMethodOTPEmail  = "OTP_EMAIL"
)

// AuthStatus enum values
const (
	AuthStatusSuccess = "SUCCESS"
	AuthStatusFailed  = "FAILED"
	AuthStatusExpired = "EXPIRED"
)

// Transaction represents a money movement
type Transaction struct {
	TransactionID   uuid.UUID  `json:"transaction_id"`
	FromAccountID   *uuid.UUID `json:"from_account_id,omitempty"`
	ToAccountNumber string     `json:"to_account_number,omitempty"`
	Amount          float64    `json:"amount"`
	TransactionType string     `json:"transaction_type"`
	Status          string     `json:"status"`
	AuthMethod      string     `json:"auth_method,omitempty"`
	DeviceID        *uuid.UUID `json:"device_id,omitempty"`
	RiskScore       float64    `json:"risk_score"`
	IsHighRisk      bool       `json:"is_high_risk"`
	ReferenceNumber string     `json:"reference_number"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// TransactionType enum values
const (
	TransactionTypeTransfer   = "TRANSFER"
	TransactionTypePayment    = "PAYMENT"
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"
)

// TransactionStatus enum values
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
	TransactionStatusCancelled = "CANCELLED"
)

// DailySummary represents per-customer daily transaction aggregates
type DailySummary struct {
	CustomerID             uuid.UUID `json:"customer_id"`
	SummaryDate            time.Time `json:"summary_date"`
	TotalTransactions      int       `json:"total_transactions"`
	TotalAmount            float64   `json:"total_amount"`
	HighValueTransactions  int       `json:"high_value_transactions"`
	StrongAuthTransactions int       `json:"strong_auth_transactions"`
	FailedTransactions     int       `json:"failed_transactions"`
	RiskScoreAvg           float64   `json:"risk_score_avg"`
	CreatedAt              time.Time `json:"created_at"`
}

// FraudAlert represents a persisted fraud monitoring alert
type FraudAlert struct {
	AlertID         uuid.UUID  `json:"alert_id"`
	TransactionID   *uuid.UUID `json:"transaction_id,omitempty"`
	CustomerID      *uuid.UUID `json:"customer_id,omitempty"`
	AlertType       string     `json:"alert_type"`
	Severity        string     `json:"severity"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	AssignedTo      string     `json:"assigned_to,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AlertType enum values
const (
	AlertComplianceViolation  = "COMPLIANCE_VIOLATION"
	AlertSuspiciousPattern    = "SUSPICIOUS_PATTERN"
	AlertDeviceRisk           = "DEVICE_RISK"
	AlertAuthFailure          = "AUTH_FAILURE"
	AlertLimitWarning         = "LIMIT_WARNING"
	AlertHighRiskTransaction  = "HIGH_RISK_TRANSACTION"
	AlertSystemHealth         = "SYSTEM_HEALTH"
	AlertJobFailure           = "JOB_FAILURE"
)

// AlertSeverity enum values
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// AlertStatus enum values
const (
	AlertStatusOpen          = "OPEN"
	AlertStatusInvestigating = "INVESTIGATING"
	AlertStatusResolved      = "RESOLVED"
	AlertStatusFalsePositive = "FALSE_POSITIVE"
)

// CheckStatus enum values, ordered worst first
const (
	StatusFail    = "FAIL"
	StatusWarning = "WARNING"
	StatusPass    = "PASS"
)

// CheckResult is the outcome of one data quality check. The timestamp
// is stamped when the check executes, in RFC 3339.
type CheckResult struct {
	CheckName     string  `json:"check_name"`
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	AffectedCount int     `json:"affected_records"`
	Timestamp     string  `json:"timestamp"`
	Details       []JSONB `json:"details,omitempty"`
}

// WorseStatus returns the more severe of two check statuses.
// FAIL outranks WARNING, WARNING outranks PASS. Unknown statuses rank
// below PASS, so a known status always wins.
func WorseStatus(a, b string) string {
	rank := func(s string) int {
		switch s {
		case StatusFail:
			return 3
		case StatusWarning:
			return 2
		case StatusPass:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// AlertEvent is a fraud monitoring finding before persistence
type AlertEvent struct {
	AlertType        string    `json:"alert_type"`
	Severity         string    `json:"severity"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	AffectedEntities []string  `json:"affected_entities"`
	Metadata         JSONB     `json:"metadata,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuditEntry represents a compliance audit trail record
type AuditEntry struct {
	AuditID    uuid.UUID `json:"audit_id"`
	EventType  string    `json:"event_type"`
	EntityID   string    `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	Action     string    `json:"action"`
	Detail     JSONB     `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditEventType enum values
const (
	AuditEventHighValueTransaction = "HIGH_VALUE_TRANSACTION"
	AuditEventAuthentication       = "AUTHENTICATION_EVENT"
)

// JSONB is a helper type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

func (j JSONB) Value() ([]byte, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}
