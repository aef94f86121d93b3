package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	Pending    Status = "Pending"
	Processing Status = "Processing"
	Completed  Status = "Completed"
	Cancelled  Status = "Cancelled"
	// StatusNA marks an absent or unknown status. It is surfaced as-is,
	// never coerced into a real status.
	StatusNA Status = "N/A"
)

// ParseStatus normalizes upstream status strings at the boundary.
// Legacy variants ("Canceled", case differences) map to the canonical
// spelling; anything else maps to StatusNA.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return Pending
	case "processing":
		return Processing
	case "completed":
		return Completed
	case "cancelled", "canceled":
		return Cancelled
	default:
		return StatusNA
	}
}

func (s Status) Known() bool {
	return s == Pending || s == Processing || s == Completed || s == Cancelled
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

type Source string

const (
	SourceShop      Source = "shop"
	SourceDashboard Source = "dashboard"
)

type OrderItem struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"orderId"`
	Product     string    `json:"product"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Phone       string    `json:"phone"`
	Quantity    int64     `json:"quantity"`
	Status      Status    `json:"status"`
	Source      Source    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Qty returns the item quantity, defaulting to 1 when absent.
func (i OrderItem) Qty() int64 {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
	PaymentFailed  PaymentStatus = "Failed"
)

func ParsePaymentStatus(s string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return PaymentPaid
	case "failed":
		return PaymentFailed
	default:
		return PaymentPending
	}
}

func (p *PaymentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParsePaymentStatus(raw)
	return nil
}

type Agent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type ReferralOrder struct {
	ID             string        `json:"id"`
	Agent          Agent         `json:"agent"`
	CustomerName   string        `json:"customerName"`
	Product        string        `json:"product"`
	AgentPrice     float64       `json:"agentPrice"`
	Commission     float64       `json:"commission"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	CommissionPaid bool          `json:"commissionPaid"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// AgentSummary is derived on demand, never stored.
type AgentSummary struct {
	AgentID          string          `json:"agentId"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	TotalCommission  decimal.Decimal `json:"totalCommission"`
	PaidCommission   decimal.Decimal `json:"paidCommission"`
	UnpaidCommission decimal.Decimal `json:"unpaidCommission"`
	PaidOrders       int             `json:"paidOrders"`
	UnpaidOrders     int             `json:"unpaidOrders"`
}

type PayoutMethod string

const (
	PayoutDirect PayoutMethod = "direct"
	PayoutWallet PayoutMethod = "wallet"
)

func (m PayoutMethod) Valid() bool {
	return m == PayoutDirect || m == PayoutWallet
}

type TransactionType string

const (
	TxOrder         TransactionType = "ORDER"
	TxTopupApproved TransactionType = "TOPUP_APPROVED"
	TxTopupRejected TransactionType = "TOPUP_REJECTED"
	TxRefund        TransactionType = "REFUND"
	TxLoanDeduction TransactionType = "LOAN_DEDUCTION"
	TxLoanStatus    TransactionType = "LOAN_STATUS"
	TxCancelled     TransactionType = "CANCELLED"
)

type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Balance     float64         `json:"balance"`
	Description string          `json:"description"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// IsCredit classifies by the sign of the amount, independent of type.
func (t Transaction) IsCredit() bool {
	return t.Amount > 0
}

// CountsTowardSales excludes CANCELLED-typed and refund-worded transactions
// from sales aggregates.
func (t Transaction) CountsTowardSales() bool {
	if t.Type == TxCancelled || t.Type == TxRefund {
		return false
	}
	return !strings.Contains(strings.ToLower(t.Description), "refund")
}

type PendingCounts struct {
	Orders     int `json:"orders"`
	Topups     int `json:"topups"`
	Complaints int `json:"complaints"`
}

type User struct {
	ID   int
	Role string
}
