// Command sessionctl drives the identity session lifecycle of one device from
// the terminal. Session slots live in Redis, keyed by DEVICE_ID.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/storefront/identity/internal/client"
	"github.com/storefront/identity/internal/client/state"
	redisdb "github.com/storefront/identity/internal/infrastructure/db/redis"
	"github.com/storefront/identity/internal/pkg/config"
	"github.com/storefront/identity/pkg/logger"
)

var _ client.SlotStorage = (*redisdb.SlotStorage)(nil)

// app is built lazily by PersistentPreRunE so that --help works offline.
type app struct {
	cfg     *config.ClientConfig
	rdb     *redis.Client
	manager *client.Manager
	log     zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	root := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Inspect and drive the identity session of this device",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.rdb != nil {
				_ = a.rdb.Close()
			}
		},
	}

	root.AddCommand(
		restoreCmd(a),
		loginCmd(a),
		googleLoginCmd(a),
		refreshCmd(a),
		logoutCmd(a),
		switchAccountCmd(a),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.LoadClient(ctx)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr, Service: "sessionctl"})

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	a.rdb = rdb

	a.manager = client.NewManager(
		redisdb.NewSlotStorage(rdb, cfg.DeviceID),
		client.NewHTTPGateway(cfg.APIURL, cfg.Timeout),
		state.NewStore(),
		a.log,
	)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
