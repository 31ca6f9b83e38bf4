// Package models defines the data transfer objects exchanged with the
// back-office REST API, along with the enumerations used across screens.
// The API owns the canonical lifecycle of these records; the client keeps
// only transient per-screen caches of them.
package models

import "github.com/shopspring/decimal"

// Role identifies the access level of a system account.
type Role string

const (
	// RoleAdmin may verify/fail payments and manage users.
	RoleAdmin Role = "ADMIN"
	// RoleViewer has read-only access to the protected screens.
	RoleViewer Role = "VIEWER"
)

// User represents a system account (staff member), not an investor.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
	Phone     string `json:"phone"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// IsAdmin reports whether the account carries the administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// InvestorType distinguishes limited from general partners.
type InvestorType string

const (
	LimitedPartner InvestorType = "LP"
	GeneralPartner InvestorType = "GP"
)

// KycStatus is the verification state of an investor's KYC documents.
type KycStatus string

const (
	KycPending  KycStatus = "PENDING"
	KycVerified KycStatus = "VERIFIED"
	KycRejected KycStatus = "REJECTED"
)

// InvestorStatus is the lifecycle state of an investor record. Deleting an
// investor is a soft delete: the server moves the record to INACTIVE.
type InvestorStatus string

const (
	InvestorActive    InvestorStatus = "ACTIVE"
	InvestorInactive  InvestorStatus = "INACTIVE"
	InvestorSuspended InvestorStatus = "SUSPENDED"
)

// Investor represents a shareholder in the project. Monetary fields are in
// USD; total_paid, outstanding_balance and payment_completion_percentage
// are computed server-side from verified payments.
type Investor struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	InvestorType        InvestorType `json:"investor_type"`
	InvestorTypeDisplay string       `json:"investor_type_display"`

	ShareAmount            decimal.Decimal `json:"share_amount"`
	SharesOwned            int             `json:"shares_owned"`
	EntryFeeAmount         decimal.Decimal `json:"entry_fee_amount"`
	QuarterlyPaymentAmount decimal.Decimal `json:"quarterly_payment_amount"`
	TotalPaid              decimal.Decimal `json:"total_paid"`
	OutstandingBalance     decimal.Decimal `json:"outstanding_balance"`
	CompletionPercentage   float64         `json:"payment_completion_percentage"`

	KycStatus       KycStatus      `json:"kyc_status"`
	KycVerifiedDate string         `json:"kyc_verified_date,omitempty"`
	InvestorStatus  InvestorStatus `json:"investor_status"`
	IsOverdue       bool           `json:"is_overdue"`

	JoinedDate string `json:"joined_date"`
	Notes      string `json:"notes"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// InvestorSummary is the per-investor financial rollup endpoint payload.
type InvestorSummary struct {
	InvestorID           int64           `json:"investor_id"`
	FullName             string          `json:"full_name"`
	ShareAmount          decimal.Decimal `json:"share_amount"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	OutstandingBalance   decimal.Decimal `json:"outstanding_balance"`
	CompletionPercentage float64         `json:"payment_completion_percentage"`
	VerifiedPayments     int             `json:"verified_payments_count"`
	PendingPayments      int             `json:"pending_payments_count"`
}

// PaymentType classifies what a payment is for.
type PaymentType string

const (
	PaymentEntryFee      PaymentType = "ENTRY_FEE"
	PaymentQuarterly     PaymentType = "QUARTERLY"
	PaymentSharePurchase PaymentType = "SHARE_PURCHASE"
	PaymentOther         PaymentType = "OTHER"
)

// PaymentStatus is the verification state of a payment.
//
// PENDING may transition to VERIFIED or FAILED through the admin verify and
// fail actions. REFUNDED is reachable only server-side and is display-only
// in this client.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentVerified PaymentStatus = "VERIFIED"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// PaymentMethod is how the money moved.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodWire         PaymentMethod = "WIRE"
	MethodCheck        PaymentMethod = "CHECK"
	MethodCash         PaymentMethod = "CASH"
	MethodOther        PaymentMethod = "OTHER"
)

// Currency is the native currency of a payment amount.
type Currency string

const (
	USD Currency = "USD"
	KES Currency = "KES"
)

// Payment represents one investor payment. Amount is stored in its native
// currency; AmountUSD and AmountKES carry the server-computed cross-rate
// display values for the same payload.
type Payment struct {
	ID           int64  `json:"id"`
	Investor     int64  `json:"investor"`
	InvestorName string `json:"investor_name"`

	PaymentType        PaymentType `json:"payment_type"`
	PaymentTypeDisplay string      `json:"payment_type_display"`

	Amount    decimal.Decimal `json:"amount"`
	Currency  Currency        `json:"currency"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
	AmountKES decimal.Decimal `json:"amount_kes"`

	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentDate   string        `json:"payment_date"`
	DueDate       string        `json:"due_date,omitempty"`

	PaymentStatus        PaymentStatus `json:"payment_status"`
	PaymentStatusDisplay string        `json:"payment_status_display"`

	ReferenceNumber string `json:"reference_number"`
	Quarter         string `json:"quarter"`
	Notes           string `json:"notes"`
	ReceiptDocument string `json:"receipt_document,omitempty"`

	VerifiedBy   string `json:"verified_by_name,omitempty"`
	VerifiedDate string `json:"verified_date,omitempty"`
	IsOverdue    bool   `json:"is_overdue"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// CanVerify reports whether the verify/fail transitions are available for
// this payment: only PENDING payments expose them.
func (p *Payment) CanVerify() bool {
	return p.PaymentStatus == PaymentPending
}
