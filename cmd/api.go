package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/RPwnage/EA-Software-sub002/internal/application"
	"github.com/RPwnage/EA-Software-sub002/internal/config"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the mock session-directory HTTP API",
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	api, err := application.NewAPI(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return api.Run(ctx)
}
