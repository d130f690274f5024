package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtding233/gachamon/internal/config"
	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/httpapi"
	"github.com/xtding233/gachamon/internal/rpc"
	"github.com/xtding233/gachamon/internal/session"
	"github.com/xtding233/gachamon/internal/species"
	"github.com/xtding233/gachamon/internal/store"
	"github.com/xtding233/gachamon/internal/typechart"
)

func openStore(ctx context.Context, cfg serverEnv) (store.Store, func(), error) {
	if cfg.Store != "redis" {
		return store.NewMemory(), func() {}, nil
	}
	rs, err := store.NewRedis(ctx, store.RedisConfig{
		Address:  cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return nil, nil, err
	}
	return rs, func() { _ = rs.Close() }, nil
}

func provider(cfg serverEnv) species.Provider {
	if cfg.Species == "fixture" {
		return species.Fixture()
	}
	return species.NewPokeAPI(cfg.PokeAPIURL, nil)
}

func main() {
	cfg, err := loadEnv()
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	live, err := config.NewLive(config.NewLoader(cfg.ConfigPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.ConfigPath != "" {
		go config.NewFileWatcher([]string{cfg.ConfigPath}, cfg.WatchInterval, live.OnChange).Run(ctx)
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeStore()

	rng := gacha.DefaultRNG()
	sessions := session.NewManager(session.Deps{
		Settings: live.Get,
		Provider: provider(cfg),
		Chart:    typechart.Default(),
		Store:    st,
		RNG:      rng,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(sessions, live.Get, rng).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcSrv := rpc.NewGRPCServer(rpc.NewServer(sessions, live.Get, rng))
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.GRPCAddr, err)
	}

	errc := make(chan error, 2)
	go func() {
		log.Printf("http listening on %s ...", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		log.Printf("grpc listening on %s ...", lis.Addr())
		if err := grpcSrv.Serve(lis); err != nil {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	grpcSrv.GracefulStop()
}
