package server

import (
	"context"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/kbadu/datashop/internal/bulk"
	"github.com/kbadu/datashop/internal/client"
	"github.com/kbadu/datashop/internal/config"
	"github.com/kbadu/datashop/internal/deps"
	"github.com/kbadu/datashop/internal/feed"
	"github.com/kbadu/datashop/internal/ledger"
	"github.com/kbadu/datashop/internal/middleware"
	"github.com/kbadu/datashop/internal/model"
	"github.com/kbadu/datashop/internal/storage"
	"github.com/kbadu/datashop/internal/transition"
)

// Store is the upstream order record store. It is the single source of
// truth: every local view is a snapshot that may already be stale by the
// time an action completes.
type Store interface {
	FetchOrderItems(ctx context.Context, f client.Filters) (client.OrdersPage, error)
	GetOrderItem(ctx context.Context, itemID string) (model.OrderItem, error)
	UpdateItemStatus(ctx context.Context, itemID string, to model.Status) error
	BatchComplete(ctx context.Context) (int, error)
	FetchReferralOrders(ctx context.Context, f client.ReferralFilters) ([]model.ReferralOrder, error)
	PayCommission(ctx context.Context, agentID string, orderIDs []string, method model.PayoutMethod) error
	FetchTransactions(ctx context.Context) ([]model.Transaction, error)
	PendingCounts(ctx context.Context) (model.PendingCounts, error)
}

type Audit interface {
	Record(ctx context.Context, entry storage.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]storage.AuditEntry, error)
}

type Server struct {
	store  Store
	audit  Audit
	engine *transition.Engine
	coord  *bulk.Coordinator
	ledger *ledger.Ledger
	feed   *feed.Feed
	config *config.Config
	deps   *deps.Deps
}

func NewServer(store Store, audit Audit, cfg *config.Config, d *deps.Deps) *Server {
	return &Server{
		store:  store,
		audit:  audit,
		engine: transition.NewEngine(store),
		coord:  bulk.NewCoordinator(store, d.Logger),
		ledger: ledger.New(store),
		feed:   feed.New(),
		config: cfg,
		deps:   d,
	}
}

func (srv *Server) buildRouter() (http.Handler, error) {
	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(middleware.LogMiddleware(srv.deps.Logger))
	router.Use(middleware.DecompressMiddleware)
	router.Use(middleware.CompressMiddleware(srv.deps.Logger))

	if srv.config.RateLimit != "" {
		rl, err := middleware.RateLimit(srv.config.RateLimit)
		if err != nil {
			return nil, err
		}
		router.Use(rl)
	}

	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(srv.deps.TokenManager))

		r.Get("/api/admin/orders", srv.GetOrdersHandler)
		r.Patch("/api/admin/orders/items/{itemID}/status", srv.UpdateStatusHandler)
		r.Post("/api/admin/orders/bulk-status", srv.BulkStatusHandler)
		r.Post("/api/admin/orders/batch-complete", srv.BatchCompleteHandler)

		r.Get("/api/admin/commissions", srv.CommissionsHandler)
		r.Post("/api/admin/commissions/pay", srv.PayCommissionHandler)

		r.Get("/api/admin/finance/summary", srv.FinanceSummaryHandler)
		r.Get("/api/admin/transactions", srv.TransactionsHandler)

		r.Get("/api/admin/notifications", srv.NotificationsHandler)
		r.Post("/api/admin/notifications/{category}/ack", srv.AckNotificationHandler)

		r.Get("/api/admin/audit", srv.AuditHandler)
	})

	return router, nil
}

func (srv *Server) Run(ctx context.Context) error {
	router, err := srv.buildRouter()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    srv.config.RunAddress,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srv.deps.Logger.Fatalf("server error: %v", err)
		}
	}()

	go srv.PendingCountsControl(ctx)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
