package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbadu/datashop/internal/auth"
	"github.com/kbadu/datashop/internal/client"
	"github.com/kbadu/datashop/internal/config"
	"github.com/kbadu/datashop/internal/deps"
	"github.com/kbadu/datashop/internal/server"
	"github.com/kbadu/datashop/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := config.NewConfig()

	store := client.New(config.UpstreamAddress, config.UpstreamToken, auth.RoleAdmin)

	var audit server.Audit = storage.Discard{}
	if config.DatabaseURI != "" {
		pgAudit, err := storage.NewPostgresAudit(ctx, config.DatabaseURI)
		if err != nil {
			config.Logger.Fatal(err)
		}
		audit = pgAudit
	}

	srv := server.NewServer(store, audit, config, deps.NewDependencies(config.Key))
	if err := srv.Run(ctx); err != nil {
		config.Logger.Fatal(err)
	}
}
