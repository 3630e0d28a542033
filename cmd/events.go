/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/mq"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect published domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print domain events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("events are disabled, set MQ_BACKEND to rabbitmq or pubsub")
		}
		defer broker.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		err = mq.Tail(ctx, broker, cfg.MQ.Channel, func(env mq.Envelope) error {
			return enc.Encode(env)
		})
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("tail %s: %w", cfg.MQ.Channel, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
