package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/run"

	"staybook/internal/infra/config"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/security"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := config.LoadDotEnv(os.Getenv("DOTENV_PATH")); err != nil {
		fmt.Fprintln(os.Stderr, "dotenv:", err)
	}
	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := obs.NewMetrics()
	app, err := buildApplication(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: app.ready}, app.handlers)

	g := &run.Group{}
	g.Add(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "pricing", cfg.PricingSource, "timezone", cfg.TimeZone.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	})
	for _, a := range app.actors {
		actorCtx, stop := context.WithCancel(ctx)
		a := a
		g.Add(func() error {
			logger.Info("worker starting", "worker", a.name)
			err := a.run(actorCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}, func(error) {
			stop()
		})
	}
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	if err := g.Run(); err != nil {
		var sig run.SignalError
		if !errors.As(err, &sig) {
			logger.Error("staybook stopped", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("staybook stopped")
}

// hashPassword prints the bcrypt hash for OPERATOR_PASSWORD_HASH. The password comes
// from the first argument or, when absent, from stdin.
func hashPassword(args []string) error {
	password := ""
	if len(args) > 0 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	hash, err := security.BcryptHasher{}.Hash(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
