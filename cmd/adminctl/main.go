// Command adminctl provisions admins and runs generation without the api.
//
//	adminctl create
//	adminctl list
//	adminctl generate -admin 1
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"imagecompare/internal/bootstrap"
	"imagecompare/internal/config"
	"imagecompare/internal/log"
	"imagecompare/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error().Err(err).Str("command", os.Args[1]).Msg("adminctl failed")
		stop()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: adminctl <create|list|generate> [flags]")
}

func run(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger, command string, args []string) error {
	stores, err := bootstrap.OpenStores(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer stores.Close()

	switch command {
	case "create":
		admins, err := service.NewAdminService(stores.Admins, cfg.Security, logger)
		if err != nil {
			return err
		}
		admin, key, err := admins.Provision(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("id:  %d\nkey: %s\n", admin.ID, key)
		return nil

	case "list":
		admins, err := service.NewAdminService(stores.Admins, cfg.Security, logger)
		if err != nil {
			return err
		}
		list, err := admins.List(ctx)
		if err != nil {
			return err
		}
		for _, admin := range list {
			fmt.Printf("%d\t%s\n", admin.ID, admin.CreatedAt.Format(time.RFC3339))
		}
		return nil

	case "generate":
		fs := flag.NewFlagSet("generate", flag.ExitOnError)
		adminID := fs.Int64("admin", 0, "admin id recorded as the creator")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *adminID <= 0 {
			return fmt.Errorf("-admin is required")
		}

		catalog, err := bootstrap.OpenCatalog(ctx, cfg)
		if err != nil {
			return err
		}
		services, err := bootstrap.NewServices(cfg, stores, catalog.Source, logger)
		if err != nil {
			return err
		}
		created, err := services.Generation.GenerateAllReporting(ctx, *adminID, func(r service.CategoryResult) {
			fmt.Printf("%q\t%d\n", r.Dirname, len(r.Comparisons))
		})
		fmt.Printf("total\t%d\n", len(created))
		return err

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
