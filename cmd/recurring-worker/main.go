package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finguy/internal/amqp"
	"finguy/internal/config"
	"finguy/internal/database"
	apperrors "finguy/internal/errors"
	"finguy/internal/logger"
	"finguy/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Recurring worker error: %v", err)
	}
}

func run() error {
	log := logger.Named("recurring-worker")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	recurring := services.NewRecurringService(dbManager.DB())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"batch_size", cfg.RecurringBatchSize,
		"amqp", cfg.AMQPURL != "")

	if cfg.AMQPURL == "" {
		err = runInline(ctx, log, recurring, cfg)
	} else {
		err = runQueued(ctx, log, recurring, cfg)
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Recurring worker shutdown complete")
	return nil
}

// runInline books due transactions directly on every tick.
func runInline(ctx context.Context, log *zap.SugaredLogger, recurring services.RecurringServicer, cfg *config.Config) error {
	return everyTick(ctx, cfg.RecurringInterval, func(now time.Time) {
		summary, err := recurring.ProcessDue(ctx, now, cfg.RecurringBatchSize)
		if err != nil {
			log.Errorw("Processing pass failed", "error", err)
			return
		}
		log.Infow("Processing pass complete",
			"due", summary.Due,
			"processed", summary.Processed,
			"skipped", summary.Skipped,
			"failed", summary.Failed)
	})
}

// runQueued publishes one message per due transaction and consumes them in
// the same process. Further workers can attach to the same queue.
func runQueued(ctx context.Context, log *zap.SugaredLogger, recurring services.RecurringServicer, cfg *config.Config) error {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	defer client.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return everyTick(ctx, cfg.RecurringInterval, func(now time.Time) {
			ids, err := recurring.DueTransactionIDs(ctx, now, cfg.RecurringBatchSize)
			if err != nil {
				log.Errorw("Failed to list due transactions", "error", err)
				return
			}
			published := 0
			for _, id := range ids {
				if err := client.PublishRecurringDue(ctx, id, now); err != nil {
					log.Warnw("Failed to publish due transaction", "transaction_id", id, "error", err)
					continue
				}
				published++
			}
			log.Infow("Scheduled due transactions", "due", len(ids), "published", published)
		})
	})

	g.Go(func() error {
		return client.ConsumeRecurringDue(ctx, func(ctx context.Context, msg *amqp.RecurringDueMessage) error {
			tx, err := recurring.ProcessRecurringTransaction(ctx, msg.TransactionID, time.Now())
			if permanent(err) {
				log.Warnw("Dropping recurring message", "transaction_id", msg.TransactionID, "reason", err)
				return nil
			}
			if err != nil {
				return err
			}
			if tx != nil {
				log.Infow("Booked recurring occurrence",
					"template_id", msg.TransactionID,
					"transaction_id", tx.ID,
					"date", tx.Date)
			}
			return nil
		})
	})

	return g.Wait()
}

// permanent reports errors that a redelivery cannot fix: the template was
// deleted or lost its schedule after the message was published.
func permanent(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrTransactionNotFound) ||
		apperrors.HasCode(err, apperrors.ErrInvalidRecurrence)
}

// everyTick runs fn immediately and then on every interval until ctx ends.
func everyTick(ctx context.Context, interval time.Duration, fn func(now time.Time)) error {
	fn(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			fn(now)
		}
	}
}
