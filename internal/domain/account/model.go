package account

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPaid    = "Paid"
	StatusPending = "Pending"
)

// Accepted modes of payment.
const (
	ModeCash    = "cash"
	ModePaybill = "paybill"
	ModeInvoice = "invoice"
)

var modes = map[string]bool{ModeCash: true, ModePaybill: true, ModeInvoice: true}

// Account is one payment ledger row.
type Account struct {
	ID            uuid.UUID `json:"id"`
	PatientName   string    `json:"patientName"`
	AccountNumber string    `json:"accountNumber"`
	ModeOfPayment string    `json:"modeOfPayment,omitempty"`
	Commission    float64   `json:"commission"`
	XrayPayment   float64   `json:"xrayPayment"`
	AmountDue     float64   `json:"amountDue"`
	AmountPaid    float64   `json:"amountPaid"`
	PaymentStatus string    `json:"paymentStatus"`
	PaymentDate   time.Time `json:"paymentDate"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DeriveStatus is Paid once the amount paid covers the amount due.
func DeriveStatus(amountDue, amountPaid float64) string {
	if amountPaid >= amountDue {
		return StatusPaid
	}
	return StatusPending
}

// Derive recomputes PaymentStatus from the amounts.
func (a *Account) Derive() {
	a.PaymentStatus = DeriveStatus(a.AmountDue, a.AmountPaid)
}

// Input is the create/update body. Amounts are pointers so a missing
// amount can be told apart from zero.
type Input struct {
	PatientName   string     `json:"patientName"`
	AccountNumber string     `json:"accountNumber"`
	ModeOfPayment string     `json:"modeOfPayment"`
	Commission    float64    `json:"commission"`
	XrayPayment   float64    `json:"xrayPayment"`
	AmountDue     *float64   `json:"amountDue"`
	AmountPaid    *float64   `json:"amountPaid"`
	PaymentDate   *time.Time `json:"paymentDate"`
}

// Summary is the financial statement over a set of ledger rows.
type Summary struct {
	Count           int     `json:"count"`
	PaidCount       int     `json:"paidCount"`
	PendingCount    int     `json:"pendingCount"`
	TotalDue        float64 `json:"totalDue"`
	TotalPaid       float64 `json:"totalPaid"`
	Outstanding     float64 `json:"outstanding"`
	TotalCommission float64 `json:"totalCommission"`
	TotalXray       float64 `json:"totalXray"`
}
