package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/AlibekovAA/postgraph/internal/common/bootstrap"
	"github.com/AlibekovAA/postgraph/internal/common/config"
)

func main() {
	envFile := pflag.String("env-file", "", "load environment variables from this dotenv file")
	migrate := pflag.Bool("migrate", true, "apply database migrations before serving")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadGatewayConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	pool, err := bootstrap.Connect(context.Background(), cfg, log, *migrate || *migrateOnly)
	if err != nil {
		log.Fatalf("failed to prepare database: %v", err)
	}

	if *migrateOnly {
		pool.Close()
		log.Info("migrations applied, exiting")
		_ = log.Close()
		return
	}

	app := bootstrap.NewGatewayApp(cfg, log, pool)
	defer app.Close()

	if err := app.Run(); err != nil {
		log.Errorf("gateway stopped with error: %v", err)
		app.Close()
		os.Exit(1)
	}
}
