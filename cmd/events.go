/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stockkeep/apiserver/config"
	"github.com/stockkeep/apiserver/internal/logging"
	"github.com/stockkeep/apiserver/internal/mq"
	"github.com/stockkeep/apiserver/types"
)

// eventsCmd groups commands that work with the product event stream.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect product events published by the server",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log product events from the configured broker until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(cfg.Log, os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer queue.Close()

		logger.Info("watching product events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.ProductChannel)
		err = queue.Subscribe(ctx, cfg.MQ.ProductChannel, func(ctx context.Context, msg mq.Message) error {
			var event types.ProductEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// Malformed payloads are acknowledged so they are not redelivered forever.
				logger.Warn("skipping malformed event", "message_id", msg.ID, "error", err)
				return nil
			}
			logger.Info("product event",
				"type", event.Type,
				"product_id", event.ProductID,
				"user_id", event.UserID,
				"occurred_at", event.OccurredAt,
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscribe: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}
