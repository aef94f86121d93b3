package middleware

import (
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit builds a per-client limiter from a formatted rate such as
// "100-M" (100 requests per minute).
func RateLimit(format string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(format)
	if err != nil {
		return nil, err
	}

	store := memory.NewStore()
	instance := limiter.New(store, rate)
	mw := stdlib.NewMiddleware(instance)

	return mw.Handler, nil
}
