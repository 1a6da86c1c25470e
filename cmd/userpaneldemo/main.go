package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/userpanel/internal/adapter/driven/session"
	sqliteadapter "github.com/ericfisherdev/userpanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/userpanel/internal/adapter/driving/debugbar"
	httphandler "github.com/ericfisherdev/userpanel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/userpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/userpanel/internal/application"
	"github.com/ericfisherdev/userpanel/internal/config"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"name_column", cfg.NameColumn,
		"session_ttl", cfg.SessionTTL,
		"secret_key_set", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Resolve the credential set shown by the user panel.
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	provider, err := loadCredentials(ctx, cfg, credentialStore)
	if err != nil {
		return err
	}
	slog.Info("credentials loaded", "count", provider.Len(), "usernames", provider.Usernames())

	// 6. Hot-swappable credential source and the authenticator behind it.
	source := application.NewCredentialSource(provider)
	var directory driven.UserDirectory
	if cfg.Authenticator == config.AuthenticatorDirectory {
		directory = sqliteadapter.NewUserRepo(db)
	}
	authenticator, err := newAuthenticator(ctx, directory, source)
	if err != nil {
		return err
	}
	slog.Info("authenticator ready", "backend", cfg.Authenticator)

	// 6b. Reload credentials on SIGHUP.
	go reloadOnHangup(ctx, cfg, credentialStore, directory, source)

	// 7. Create the session manager.
	sessionSecret := cfg.SecretKey
	if sessionSecret == nil {
		slog.Warn("USERPANEL_SECRET_KEY not set, sessions will not survive a restart")
		sessionSecret = make([]byte, 32)
		if _, err := rand.Read(sessionSecret); err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
	}
	sessions, err := session.NewManager(session.ManagerConfig{
		Secret: sessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.SecureCookies,
	}, slog.Default())
	if err != nil {
		return err
	}
	loadSession := func(w http.ResponseWriter, r *http.Request) driven.UserSession {
		return sessions.Load(w, r)
	}

	// 8. Wire the user panel onto the debug bar.
	renderer := webhandler.NewRenderer()
	panels := webhandler.NewUserPanelFactory(
		loadSession,
		source,
		authenticator,
		renderer,
		webhandler.UserPanelOptions{
			NameColumn:    cfg.NameColumn,
			Note:          cfg.Note,
			SecureCookies: cfg.SecureCookies,
		},
		slog.Default(),
	)
	bar := debugbar.NewBar(renderer, slog.Default(), webhandler.BasePath+"/", "/api/", "/healthz")
	bar.Register(application.UserPanelID, panels.DebugBarFactory())

	// 9. Register routes.
	mux := http.NewServeMux()
	apiHandler := httphandler.NewHandler(db, httphandler.SessionLoader(loadSession), slog.Default())
	httphandler.RegisterRoutes(mux, apiHandler)

	webHandler := webhandler.NewHandler(panels, loadSession, slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(
		bar.Middleware(mux),
		slog.Default(),
		httphandler.SessionLoader(loadSession),
		webhandler.BasePath+"/static/",
		"/healthz",
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("userpanel demo started", "listen_addr", cfg.ListenAddr)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
