// Package app wires the components together and runs the process.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/canalvip/vipbot/internal/bot"
	"github.com/canalvip/vipbot/internal/config"
	"github.com/canalvip/vipbot/internal/db"
	"github.com/canalvip/vipbot/internal/freequeue"
	"github.com/canalvip/vipbot/internal/http"
	"github.com/canalvip/vipbot/internal/ledger"
	"github.com/canalvip/vipbot/internal/logging"
	"github.com/canalvip/vipbot/internal/notify"
)

// Migrate opens the database, runs migrations, and closes the pool.
func Migrate(cfg config.Config) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	defer func() {
		if sqlDB, errDB := conn.DB(); errDB == nil {
			_ = sqlDB.Close()
		}
	}()
	return db.Migrate(conn)
}

// Run boots every component and blocks until the context is cancelled.
// Cancelling stops the update loop and prevents the sweepers' next ticks;
// in-flight work finishes.
func Run(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.Debug, cfg.LogFile)

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	api, errBot := tgbotapi.NewBotAPI(cfg.BotToken)
	if errBot != nil {
		return fmt.Errorf("app: connect bot: %w", errBot)
	}
	log.Infof("authorized on account %s", api.Self.UserName)

	recorder := notify.NewRecorder(conn)
	notifier := notify.NewTelegramNotifier(api)
	lg := ledger.New(conn, notifier, recorder)
	queue := freequeue.New(conn, notifier, recorder)

	ledger.NewReminderSweeper(lg, cfg.ReminderInterval).Start(ctx)
	freequeue.NewApprovalSweeper(queue, cfg.ApprovalInterval).Start(ctx)

	server := http.NewServer(conn, lg, queue, cfg.APIToken)
	go func() {
		if errServe := server.Run(ctx, cfg.ListenAddr); errServe != nil {
			log.WithError(errServe).Error("status API stopped")
		}
	}()

	return bot.New(api, lg, queue, cfg.AdminID).Run(ctx)
}
