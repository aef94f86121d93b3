// Package client wraps the upstream order record store. Every call carries a
// bounded timeout and surfaces the server-provided message on failure. The
// client holds no order state of its own; callers re-fetch to observe the
// effect of a mutation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kbadu/datashop/internal/auth"
	"github.com/kbadu/datashop/internal/errs"
	"github.com/kbadu/datashop/internal/model"
)

const requestTimeout = 30 * time.Second

type Client struct {
	baseURL string
	token   string
	role    string
	http    *http.Client
}

func New(baseURL, token, role string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		role:    role,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type Filters struct {
	OrderID string
	Phone   string
	Product string
	Status  model.Status
	From    time.Time
	To      time.Time
	Sort    string
	Page    int
	Limit   int
}

type OrdersPage struct {
	Items        []model.OrderItem `json:"items"`
	Total        int               `json:"total"`
	Page         int               `json:"page"`
	Pages        int               `json:"pages"`
	StatusCounts map[string]int    `json:"statusCounts"`
}

type ReferralFilters struct {
	From          time.Time
	To            time.Time
	PaymentStatus model.PaymentStatus
}

func (c *Client) FetchOrderItems(ctx context.Context, f Filters) (OrdersPage, error) {
	q := url.Values{}
	if f.OrderID != "" {
		q.Set("orderId", f.OrderID)
	}
	if f.Phone != "" {
		q.Set("phone", f.Phone)
	}
	if f.Product != "" {
		q.Set("product", f.Product)
	}
	if f.Status.Known() {
		q.Set("status", string(f.Status))
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format("2006-01-02"))
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var page OrdersPage
	err := c.get(ctx, "/api/orders?"+q.Encode(), &page)
	return page, err
}

func (c *Client) GetOrderItem(ctx context.Context, itemID string) (model.OrderItem, error) {
	var item model.OrderItem
	err := c.get(ctx, "/api/orders/items/"+url.PathEscape(itemID), &item)
	return item, err
}

func (c *Client) UpdateItemStatus(ctx context.Context, itemID string, to model.Status) error {
	body := map[string]string{"status": string(to)}
	return c.send(ctx, http.MethodPatch, "/api/orders/items/"+url.PathEscape(itemID)+"/status", body, nil)
}

// BatchComplete asks the store to complete every currently-Processing item in
// one server-side operation. Returns the number of items updated.
func (c *Client) BatchComplete(ctx context.Context) (int, error) {
	var resp struct {
		Updated int `json:"updated"`
	}
	err := c.send(ctx, http.MethodPost, "/api/orders/batch-complete", nil, &resp)
	return resp.Updated, err
}

func (c *Client) FetchReferralOrders(ctx context.Context, f ReferralFilters) ([]model.ReferralOrder, error) {
	q := url.Values{}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format("2006-01-02"))
	}
	if f.PaymentStatus != "" {
		q.Set("paymentStatus", string(f.PaymentStatus))
	}

	var resp struct {
		Orders []model.ReferralOrder `json:"orders"`
	}
	err := c.get(ctx, "/api/referrals?"+q.Encode(), &resp)
	return resp.Orders, err
}

func (c *Client) PayCommission(ctx context.Context, agentID string, orderIDs []string, method model.PayoutMethod) error {
	body := map[string]interface{}{
		"agentId":  agentID,
		"orderIds": orderIDs,
		"method":   string(method),
	}
	return c.send(ctx, http.MethodPost, "/api/referrals/pay-commission", body, nil)
}

func (c *Client) FetchTransactions(ctx context.Context) ([]model.Transaction, error) {
	var resp struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	err := c.get(ctx, "/api/transactions", &resp)
	return resp.Transactions, err
}

// PendingCounts polls the three count endpoints. When the session has no token
// or lacks the admin role the call is a silent no-op returning zero counts, so
// non-admin sessions never produce noisy failures.
func (c *Client) PendingCounts(ctx context.Context) (model.PendingCounts, error) {
	var counts model.PendingCounts
	if c.token == "" || c.role != auth.RoleAdmin {
		return counts, nil
	}

	endpoints := []struct {
		path string
		dst  *int
	}{
		{"/api/orders/pending-count", &counts.Orders},
		{"/api/topups/pending-count", &counts.Topups},
		{"/api/complaints/pending-count", &counts.Complaints},
	}

	for _, e := range endpoints {
		var resp struct {
			Count int `json:"count"`
		}
		if err := c.get(ctx, e.path, &resp); err != nil {
			return model.PendingCounts{}, err
		}
		*e.dst = resp.Count
	}

	return counts, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errs.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) remoteError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	return &errs.RemoteError{StatusCode: resp.StatusCode, Message: msg}
}
