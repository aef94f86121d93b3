// Package ledger derives per-agent commission totals and forwards payout
// requests. Commission is only collectible on orders whose payment is
// confirmed; commissionPaid moves false -> true exactly once, server-side.
package ledger

import (
	"context"
	"sort"

	"github.com/kbadu/datashop/internal/errs"
	"github.com/kbadu/datashop/internal/model"
	"github.com/shopspring/decimal"
)

// ComputeAgentSummary groups referral orders by agent and totals their
// commission. Orders without a Paid payment status contribute nothing. The
// result is sorted non-increasing by unpaid commission: the agents owed the
// most come first, which drives the pay-next workflow.
func ComputeAgentSummary(orders []model.ReferralOrder) []model.AgentSummary {
	byAgent := make(map[string]*model.AgentSummary)

	for _, order := range orders {
		if order.PaymentStatus != model.PaymentPaid {
			continue
		}

		summary, ok := byAgent[order.Agent.ID]
		if !ok {
			summary = &model.AgentSummary{
				AgentID:          order.Agent.ID,
				Name:             order.Agent.Name,
				Phone:            order.Agent.Phone,
				TotalCommission:  decimal.Zero,
				PaidCommission:   decimal.Zero,
				UnpaidCommission: decimal.Zero,
			}
			byAgent[order.Agent.ID] = summary
		}

		commission := decimal.NewFromFloat(order.Commission)
		summary.TotalCommission = summary.TotalCommission.Add(commission)
		if order.CommissionPaid {
			summary.PaidCommission = summary.PaidCommission.Add(commission)
			summary.PaidOrders++
		} else {
			summary.UnpaidOrders++
		}
	}

	summaries := make([]model.AgentSummary, 0, len(byAgent))
	for _, summary := range byAgent {
		summary.UnpaidCommission = summary.TotalCommission.Sub(summary.PaidCommission)
		summaries = append(summaries, *summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		cmp := summaries[i].UnpaidCommission.Cmp(summaries[j].UnpaidCommission)
		if cmp != 0 {
			return cmp > 0
		}
		return summaries[i].AgentID < summaries[j].AgentID
	})

	return summaries
}

type Payer interface {
	PayCommission(ctx context.Context, agentID string, orderIDs []string, method model.PayoutMethod) error
}

type Ledger struct {
	store Payer
}

func New(store Payer) *Ledger {
	return &Ledger{store: store}
}

// MarkPaid marks commission paid over an explicit, caller-supplied order id
// set. The ledger does not filter the set itself; validation of payment and
// commission state happens server-side. It is a single remote call: on
// failure none of the set was marked.
func (l *Ledger) MarkPaid(ctx context.Context, agentID string, orderIDs []string, method model.PayoutMethod) error {
	if agentID == "" {
		return &errs.ValidationError{Field: "agentId", Reason: "required"}
	}
	if len(orderIDs) == 0 {
		return &errs.ValidationError{Field: "orderIds", Reason: "explicit order id set required"}
	}
	if !method.Valid() {
		return &errs.ValidationError{Field: "method", Reason: "must be direct or wallet"}
	}

	return l.store.PayCommission(ctx, agentID, orderIDs, method)
}
