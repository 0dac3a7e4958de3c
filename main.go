package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpme/internal/auth"
	"helpme/internal/cleaner"
	"helpme/internal/config"
	"helpme/internal/firebase"
	"helpme/internal/notify"
	"helpme/internal/queue"
	"helpme/internal/repository"
	"helpme/internal/router"
	"helpme/internal/server"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	config.Config = cfg

	err = run(cfg)
	glog.Flush()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// run serves until SIGINT or SIGTERM. Everything it opens is closed before it returns.
func run(cfg *config.ServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error creating repository: %w", err)
	}
	defer repo.Close()

	notifier, err := newNotifier(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error connecting to Redis: %w", err)
	}
	defer notifier.Close()

	sessions, err := newSessions(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error creating session verifier: %w", err)
	}

	svc := queue.NewService(repo, notifier)
	srv := server.New(router.New(svc, auth.NewAuthenticator(sessions, repo)))

	clean, err := cleaner.New(cfg.CleanSchedule, svc)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server is listening on port %v\n", cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if clean != nil {
		g.Go(func() error { return clean.Run(gctx) })
	}

	return g.Wait()
}

func newNotifier(ctx context.Context, cfg *config.ServerConfig) (notify.Notifier, error) {
	if cfg.RedisAddr == "" {
		return notify.NewBroker(), nil
	}
	return notify.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func newSessions(ctx context.Context, cfg *config.ServerConfig) (auth.Sessions, error) {
	if cfg.AuthMode == config.AuthJWT {
		return auth.NewJWTSessions(cfg.JWTSecret), nil
	}
	app, err := firebase.App(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		return nil, err
	}
	return auth.NewFirebaseSessions(ctx, app)
}
