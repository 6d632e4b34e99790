/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/samvaad/apiserver/config"
	"github.com/samvaad/apiserver/internal/mq"
	"github.com/samvaad/apiserver/internal/notify"
	"github.com/spf13/cobra"
)

// notifyWorkerCmd consumes intake notifications from the broker and
// delivers them to the configured webhook.
var notifyWorkerCmd = &cobra.Command{
	Use:   "notify-worker",
	Short: "Run the intake notification worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		if cfg.Notify.WebhookURL == "" {
			return errors.New("NOTIFY_WEBHOOK_URL is required")
		}

		var (
			broker mq.Broker
			err    error
		)
		switch cfg.Broker.Backend {
		case config.BrokerRabbitMQ:
			broker, err = mq.NewRabbitMQBroker(cfg.Broker.RabbitMQ)
		case config.BrokerPubSub:
			broker, err = mq.NewPubSubBroker(cmd.Context(), cfg.Broker.PubSub)
		case "":
			return errors.New("BROKER_BACKEND is required")
		default:
			return fmt.Errorf("unknown broker backend %q", cfg.Broker.Backend)
		}
		if err != nil {
			return err
		}
		defer broker.Close()

		worker := notify.NewWorker(broker, cfg.Notify.Channel, cfg.Notify.WebhookURL)
		return worker.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(notifyWorkerCmd)
}
