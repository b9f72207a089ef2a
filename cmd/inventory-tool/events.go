package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/smartinventory/smartinventory-backend/pkg/messaging"
)

var eventsPattern string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect inventory events on RabbitMQ",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print inventory events as JSON lines until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		rmq, err := messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			return err
		}
		defer rmq.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		consumer, err := messaging.NewConsumer(rmq, func(_ context.Context, event *messaging.Event) error {
			return enc.Encode(event)
		}, log)
		if err != nil {
			return err
		}
		if err := consumer.Subscribe(messaging.ExchangeInventoryEvents, eventsPattern); err != nil {
			return err
		}
		return consumer.Run(cmd.Context())
	},
}

func init() {
	eventsTailCmd.Flags().StringVar(&eventsPattern, "pattern", "inventory.#", "routing key pattern")
	eventsCmd.AddCommand(eventsTailCmd)
}
