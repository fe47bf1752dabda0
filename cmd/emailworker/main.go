// emailworker consume la cola de emails y los envía por SMTP.
// La configuración SMTP vive en settings de aplicación: se relee por
// job, así un cambio de credenciales no requiere reiniciar el worker.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/gatekeep/internal/config"
	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/email"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	"github.com/dropDatabas3/gatekeep/internal/store/pg"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "emailworker",
		Short: "Worker de envío de emails (consume la cola redis)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath)
		},
	}
	root.Flags().StringVar(&cfgPath, "config", "config.yaml", "Path del archivo de configuración")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "emailworker",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, pg.PoolConfig{DSN: cfg.Storage.DSN})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	settings := pg.NewSettingRepo(pool)

	q := queue.NewRedis(queue.RedisConfig{
		Addr:       cfg.Queue.Redis.Addr,
		DB:         cfg.Queue.Redis.DB,
		EmailQueue: cfg.Queue.EmailQueue,
		NotifQueue: cfg.Queue.NotificationQueue,
	})
	defer func() { _ = q.Close() }()

	log.Info("email worker started", logger.Queue(q.EmailQueueName()))

	for {
		select {
		case <-ctx.Done():
			log.Info("email worker stopped")
			return nil
		default:
		}

		job, err := q.Dequeue(ctx, q.EmailQueueName(), 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("email worker stopped")
				return nil
			}
			log.Error("dequeue failed", logger.Err(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := process(ctx, settings, job); err != nil {
			// Fire-and-forget: el job fallido se descarta, solo se loguea.
			log.Error("email job failed", logger.JobID(job.ID), logger.Err(err))
			continue
		}
		log.Info("email sent", logger.JobID(job.ID))
	}
}

func process(ctx context.Context, settings repository.SettingRepository, job *queue.Job) error {
	var ej queue.EmailJob
	if err := json.Unmarshal(job.Payload, &ej); err != nil {
		return fmt.Errorf("payload: %w", err)
	}

	body, err := email.Render(ej.Template, ej.Data)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	sender, err := email.SenderFromSettings(ctx, settings)
	if err != nil {
		return fmt.Errorf("smtp settings: %w", err)
	}
	if err := sender.Send(ej.Recipients, ej.Subject, body); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
