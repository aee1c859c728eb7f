/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tabzpay/progress-sub002/config"
	"github.com/tabzpay/progress-sub002/internal/mq"
	"github.com/tabzpay/progress-sub002/internal/notify"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Work with the notification channel",
}

var notificationsListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print notifications published to the channel until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_DRIVER is none; nothing to listen to")
		}
		defer func() { _ = queue.Close() }()

		logger.Info("listening for notifications")
		err = notify.Listen(ctx, queue, cfg.MQ.NotificationsChannel, notify.NewLogNotifier(logger), logger)
		if errors.Is(err, ctx.Err()) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsListenCmd)
}
