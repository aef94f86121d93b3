// Package finance computes financial summaries from the order item stream.
// The functions are pure: summaries are recomputed from a fresh fetch rather
// than patched incrementally, so they never drift from missed transitions.
package finance

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kbadu/datashop/internal/model"
	"github.com/shopspring/decimal"
)

type Summary struct {
	Revenue           decimal.Decimal `json:"revenue"`
	RevenueOrderCount int             `json:"revenueOrderCount"`
	Expenses          decimal.Decimal `json:"expenses"`
	ExpenseCount      int             `json:"expenseCount"`
	Net               decimal.Decimal `json:"net"`
	TotalGB           decimal.Decimal `json:"totalGB"`
}

// sizeRe matches the leading numeric value before a GB/MB unit token in a
// product description, e.g. "5GB bundle" or "500 MB night pack".
var sizeRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(GB|MB)`)

// ParseGB extracts the bundle size in GB from a product description.
// Unparseable descriptions contribute zero.
func ParseGB(description string) decimal.Decimal {
	m := sizeRe.FindStringSubmatch(description)
	if m == nil {
		return decimal.Zero
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return decimal.Zero
	}

	size := decimal.NewFromFloat(value)
	if strings.EqualFold(m[2], "MB") {
		size = size.Div(decimal.NewFromInt(1000))
	}
	return size
}

// ComputeFinancials derives revenue, expenses, net and delivered data volume.
// Cancelled items are excluded from revenue and counted as expenses with the
// same quantity x price formula. Shop-sourced completed orders are excluded
// from the delivered-GB metric.
func ComputeFinancials(items []model.OrderItem) Summary {
	s := Summary{
		Revenue:  decimal.Zero,
		Expenses: decimal.Zero,
		TotalGB:  decimal.Zero,
	}

	for _, item := range items {
		amount := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(item.Qty()))

		if item.Status == model.Cancelled {
			s.Expenses = s.Expenses.Add(amount)
			s.ExpenseCount++
			continue
		}

		s.Revenue = s.Revenue.Add(amount)
		s.RevenueOrderCount++

		if item.Status == model.Completed && item.Source != model.SourceShop {
			s.TotalGB = s.TotalGB.Add(ParseGB(item.Description))
		}
	}

	s.Net = s.Revenue.Sub(s.Expenses)
	return s
}

type TransactionStats struct {
	Credits     decimal.Decimal `json:"credits"`
	CreditCount int             `json:"creditCount"`
	Debits      decimal.Decimal `json:"debits"`
	DebitCount  int             `json:"debitCount"`
	Sales       decimal.Decimal `json:"sales"`
	SalesCount  int             `json:"salesCount"`
}

// ComputeTransactionStats splits transactions into credits and debits by the
// sign of the amount and totals sales, excluding CANCELLED-typed and
// refund-worded entries.
func ComputeTransactionStats(txs []model.Transaction) TransactionStats {
	stats := TransactionStats{
		Credits: decimal.Zero,
		Debits:  decimal.Zero,
		Sales:   decimal.Zero,
	}

	for _, tx := range txs {
		amount := decimal.NewFromFloat(tx.Amount)

		if tx.IsCredit() {
			stats.Credits = stats.Credits.Add(amount)
			stats.CreditCount++
		} else {
			stats.Debits = stats.Debits.Add(amount.Abs())
			stats.DebitCount++
		}

		if tx.Type == model.TxOrder && tx.CountsTowardSales() {
			stats.Sales = stats.Sales.Add(amount.Abs())
			stats.SalesCount++
		}
	}

	return stats
}
