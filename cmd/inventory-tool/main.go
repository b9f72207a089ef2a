// Command inventory-tool runs offline maintenance tasks against the inventory data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartinventory/smartinventory-backend/pkg/config"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

const serviceName = "inventory-tool"

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Maintenance commands for the household inventory",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(serviceName)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		cfg = loaded
		log = logger.New(serviceName, cfg.Server.Environment)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(receiptCmd, migrateCmd, exportCmd, eventsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
