package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Flowboard/internal/mq"
	"github.com/shaiso/Flowboard/internal/repo"
	"github.com/shaiso/Flowboard/internal/sweeper"
	"github.com/shaiso/Flowboard/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting flowboard-sweeper")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	workflowRepo := repo.NewWorkflowRepo(pool)
	metrics := telemetry.NewMetrics()

	keep := sweeper.DefaultKeepVersions
	if v := os.Getenv("KEEP_VERSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Error("invalid KEEP_VERSIONS", "value", v)
			os.Exit(1)
		}
		keep = n
	}

	sw, err := sweeper.New(sweeper.Config{
		WorkflowRepo: workflowRepo,
		Logger:       logger,
		Metrics:      metrics,
		Keep:         keep,
		CronExpr:     os.Getenv("SWEEP_CRON"),
	})
	if err != nil {
		logger.Error("failed to build sweeper", "error", err)
		os.Exit(1)
	}

	// RabbitMQ: точечная чистка по событиям workflow.saved.
	// Без брокера работает только полный проход по расписанию.
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}
	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running cron-only", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
			Queue:   string(mq.QueueRetentionSaved),
			Handler: sw.HandleSaved,
		})
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("retention consumer stopped", "error", err)
			}
		}()
	}

	// cron loop
	go func() {
		if err := sw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sweeper stopped", "error", err)
			cancel()
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SWEEPER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("stopped")
}
