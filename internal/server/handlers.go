package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kbadu/datashop/internal/bulk"
	"github.com/kbadu/datashop/internal/client"
	"github.com/kbadu/datashop/internal/errs"
	"github.com/kbadu/datashop/internal/feed"
	"github.com/kbadu/datashop/internal/finance"
	"github.com/kbadu/datashop/internal/ledger"
	"github.com/kbadu/datashop/internal/middleware"
	"github.com/kbadu/datashop/internal/model"
	"github.com/kbadu/datashop/internal/storage"
	"github.com/kbadu/datashop/internal/utils"
)

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Remote failures keep
// the server-provided message so the operator sees actionable text.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		ve *errs.ValidationError
		te *errs.TransitionError
		re *errs.RemoteError
	)

	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &te):
		http.Error(w, te.Error(), http.StatusConflict)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, errs.ErrNoEligible):
		http.Error(w, errs.ErrNoEligible.Error(), http.StatusConflict)
	case errors.Is(err, errs.ErrAborted):
		http.Error(w, "explicit scope choice required", http.StatusBadRequest)
	case errors.As(err, &re):
		http.Error(w, re.Error(), http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) actor(r *http.Request) (model.User, bool) {
	user, ok := r.Context().Value(middleware.UserContextKey).(model.User)
	return user, ok
}

func parseOrderFilters(r *http.Request) (client.Filters, error) {
	q := r.URL.Query()
	f := client.Filters{
		OrderID: q.Get("orderId"),
		Phone:   q.Get("phone"),
		Product: q.Get("product"),
		Sort:    q.Get("sort"),
	}

	if f.Phone != "" && !utils.IsValidPhone(f.Phone) {
		return f, &errs.ValidationError{Field: "phone", Reason: "malformed mobile number"}
	}

	if raw := q.Get("status"); raw != "" {
		status := model.ParseStatus(raw)
		if !status.Known() {
			return f, &errs.ValidationError{Field: "status", Reason: "unknown status"}
		}
		f.Status = status
	}

	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, &errs.ValidationError{Field: "from", Reason: "expected YYYY-MM-DD"}
		}
		f.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, &errs.ValidationError{Field: "to", Reason: "expected YYYY-MM-DD"}
		}
		f.To = to
	}

	if raw := q.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			f.Page = page
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			f.Limit = limit
		}
	}

	return f, nil
}

func (s *Server) GetOrdersHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := parseOrderFilters(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	page, err := s.store.FetchOrderItems(r.Context(), filters)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, page)
}

func (s *Server) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.actor(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	itemID := chi.URLParam(r, "itemID")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	target := model.ParseStatus(req.Status)
	newStatus, err := s.engine.Transition(r.Context(), itemID, target)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.audit.Record(r.Context(), storage.AuditEntry{
		Action:  storage.ActionStatusChange,
		ActorID: user.ID,
		Subject: itemID,
		Detail:  string(newStatus),
	}); err != nil {
		s.deps.Logger.Errorf("audit status change: %v", err)
	}

	s.writeJSON(w, map[string]string{"itemId": itemID, "status": string(newStatus)})
}

type bulkStatusRequest struct {
	Target  string `json:"target"`
	Scope   string `json:"scope"`
	ItemID  string `json:"itemId"`
	OrderID string `json:"orderId"`
	Phone   string `json:"phone"`
	Product string `json:"product"`
	Status  string `json:"status"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (s *Server) BulkStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.actor(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req bulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	target := model.ParseStatus(req.Target)

	filters := client.Filters{
		OrderID: req.OrderID,
		Phone:   req.Phone,
		Product: req.Product,
	}
	if req.Status != "" {
		filters.Status = model.ParseStatus(req.Status)
	}
	if req.From != "" {
		if from, err := time.Parse("2006-01-02", req.From); err == nil {
			filters.From = from
		}
	}
	if req.To != "" {
		if to, err := time.Parse("2006-01-02", req.To); err == nil {
			filters.To = to
		}
	}

	// the eligible set is derived from a fresh fetch, never from a view the
	// operator may have been staring at for a while
	page, err := s.store.FetchOrderItems(r.Context(), filters)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var decide bulk.Decider
	switch strings.ToLower(req.Scope) {
	case "all":
		decide = func(filtered, eligible int) bulk.ScopeDecision { return bulk.ScopeAll }
	case "single":
		decide = func(filtered, eligible int) bulk.ScopeDecision { return bulk.ScopeSingle }
	case "":
		decide = nil
	default:
		http.Error(w, "scope must be all or single", http.StatusBadRequest)
		return
	}

	result, err := s.coord.Apply(r.Context(), page.Items, target, req.ItemID, decide)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.audit.Record(r.Context(), storage.AuditEntry{
		Action:  storage.ActionBulkUpdate,
		ActorID: user.ID,
		Subject: string(target),
		Detail:  fmt.Sprintf("succeeded=%d failed=%d", result.Succeeded, result.Failed),
	}); err != nil {
		s.deps.Logger.Errorf("audit bulk update: %v", err)
	}

	s.writeJSON(w, result)
}

func (s *Server) BatchCompleteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.actor(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	updated, err := s.coord.BatchComplete(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.audit.Record(r.Context(), storage.AuditEntry{
		Action:  storage.ActionBatchComplete,
		ActorID: user.ID,
		Detail:  fmt.Sprintf("updated=%d", updated),
	}); err != nil {
		s.deps.Logger.Errorf("audit batch complete: %v", err)
	}

	s.writeJSON(w, map[string]int{"updated": updated})
}

func parseReferralFilters(r *http.Request) client.ReferralFilters {
	q := r.URL.Query()
	f := client.ReferralFilters{}

	if raw := q.Get("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			f.From = from
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			f.To = to
		}
	}
	if raw := q.Get("paymentStatus"); raw != "" {
		f.PaymentStatus = model.ParsePaymentStatus(raw)
	}

	return f
}

func (s *Server) CommissionsHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.FetchReferralOrders(r.Context(), parseReferralFilters(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"agents": ledger.ComputeAgentSummary(orders),
		"orders": orders,
	})
}

func (s *Server) PayCommissionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.actor(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		AgentID  string   `json:"agentId"`
		OrderIDs []string `json:"orderIds"`
		Method   string   `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	err := s.ledger.MarkPaid(r.Context(), req.AgentID, req.OrderIDs, model.PayoutMethod(req.Method))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.audit.Record(r.Context(), storage.AuditEntry{
		Action:  storage.ActionCommissionPayout,
		ActorID: user.ID,
		Subject: req.AgentID,
		Detail:  fmt.Sprintf("method=%s orders=%d", req.Method, len(req.OrderIDs)),
	}); err != nil {
		s.deps.Logger.Errorf("audit commission payout: %v", err)
	}

	s.writeJSON(w, map[string]string{"message": "commission marked paid"})
}

func (s *Server) FinanceSummaryHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := parseOrderFilters(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	page, err := s.store.FetchOrderItems(r.Context(), filters)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, finance.ComputeFinancials(page.Items))
}

func (s *Server) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.FetchTransactions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"transactions": txs,
		"stats":        finance.ComputeTransactionStats(txs),
	})
}

func (s *Server) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"counts": s.feed.Snapshot(),
		"hasNew": s.feed.HasNew(),
	})
}

func (s *Server) AckNotificationHandler(w http.ResponseWriter, r *http.Request) {
	category := feed.Category(chi.URLParam(r, "category"))
	switch category {
	case feed.CategoryOrders, feed.CategoryTopups, feed.CategoryComplaints:
	default:
		http.Error(w, "unknown category", http.StatusBadRequest)
		return
	}

	s.feed.Acknowledge(category)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) AuditHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	entries, err := s.audit.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to list audit entries", http.StatusInternalServerError)
		return
	}

	if len(entries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.writeJSON(w, entries)
}
