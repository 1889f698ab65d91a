package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/gymtrack/internal/catalog"
	"github.com/claude/gymtrack/internal/config"
	"github.com/claude/gymtrack/internal/history"
	"github.com/claude/gymtrack/internal/identity"
	gymmcp "github.com/claude/gymtrack/internal/mcp"
	"github.com/claude/gymtrack/internal/models"
	"github.com/claude/gymtrack/internal/routine"
	"github.com/claude/gymtrack/internal/scratch"
	"github.com/claude/gymtrack/internal/server"
	"github.com/claude/gymtrack/internal/session"
	"github.com/claude/gymtrack/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpMode := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("GymTrack starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Seed global exercises (idempotent, ON CONFLICT DO NOTHING)
	if err := db.SeedGlobalExercises(ctx); err != nil {
		log.Warn("global exercise seed failed", "error", err)
	}

	// Local scratch keeps an in-progress session across restarts
	sc, err := scratch.Open(cfg.Scratch.Dir)
	if err != nil {
		log.Error("failed to open scratch store", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	ident := identity.New(log)
	ident.OnChange(func(u *identity.User) {
		if u == nil {
			log.Info("per-user state released")
		}
	})

	factory := func(ctx context.Context, login string) (*server.Components, error) {
		uid, err := db.GetOrCreateUser(ctx, login)
		if err != nil {
			return nil, fmt.Errorf("resolving user %s: %w", login, err)
		}
		cat := catalog.New(db, uid, log)
		plan := routine.New(db, uid, log)
		mgr := session.New(db, plan, cat, sc, uid, log)
		if err := mgr.Resume(); err != nil {
			log.Warn("session resume failed", "error", err)
		}
		return &server.Components{
			UserID:  uid,
			Login:   login,
			Catalog: cat,
			Plan:    plan,
			Session: mgr,
			History: history.New(db, cat, uid, log),
			Restore: func(ctx context.Context, doc *models.BackupDocument) error {
				return db.RestoreBackup(ctx, uid, doc)
			},
		}, nil
	}

	// MCP over stdio: read-only agent access as the dev user
	if *mcpMode {
		c, err := factory(ctx, cfg.Auth.DevUser)
		if err != nil {
			log.Error("mcp component setup failed", "error", err)
			os.Exit(1)
		}
		s := gymmcp.New(c.Catalog, c.Plan, c.History, Version, log)
		if err := mcpserver.ServeStdio(s); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Create server
	srv := server.New(factory, ident, cfg.Auth.APIKey, cfg.Auth.DevUser, log)

	// Start server, tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
