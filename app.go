package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SergeyParamoshkin/bhola-bot/internal/applog"
	"github.com/SergeyParamoshkin/bhola-bot/internal/bot"
	"github.com/SergeyParamoshkin/bhola-bot/internal/config"
	"github.com/SergeyParamoshkin/bhola-bot/internal/metrics"
	"github.com/SergeyParamoshkin/bhola-bot/internal/process"
	"github.com/SergeyParamoshkin/bhola-bot/internal/telegram"
	"github.com/SergeyParamoshkin/bhola-bot/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	sugarLogger *zap.SugaredLogger
	config      *config.Settings
	metrics     *metrics.Metrics

	client     *telegram.Client
	dispatcher *telegram.Dispatcher
}

func NewApp(cfg *config.Settings, logger *zap.SugaredLogger, m *metrics.Metrics) *App {
	client := telegram.NewClient(
		cfg.TelegramBotToken,
		cfg.TelegramAPIURL,
		telegram.WithTimeout(cfg.RequestTimeout),
	)

	d := telegram.NewDispatcher(client, logger, m)
	bot.New(client, m).Register(d)

	return &App{
		sugarLogger: logger,
		config:      cfg,
		metrics:     m,
		client:      client,
		dispatcher:  d,
	}
}

func (a *App) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(a.Logger)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	process.NewAPI(a.metrics).Mount(r)

	// Telegram posts updates here, see setWebhook in Startup.
	r.Mount(config.WebhookPath, webhook.NewAPI(a.config.WebhookSecretToken, a.dispatcher, a.metrics).Routes())

	return r
}

func (a *App) Logger(next http.Handler) http.Handler {
	return applog.Middleware(a.sugarLogger)(next)
}

// Startup initializes the bot and registers the webhook when a public URL
// is known. A setWebhook refused by Telegram is logged and ignored.
func (a *App) Startup(ctx context.Context) error {
	if err := a.dispatcher.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize bot: %w", err)
	}

	url := a.config.WebhookURL()
	if url == "" {
		a.sugarLogger.Infow("no public base url, webhook left unchanged")

		return nil
	}

	raw, err := a.SetWebhook(ctx, url)

	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		a.sugarLogger.Warnw("setWebhook refused", "url", url, "response", string(raw))

		return nil
	}

	if err != nil {
		return err
	}

	a.sugarLogger.Infow("setWebhook", "url", url, "response", string(raw))

	return nil
}

func (a *App) SetWebhook(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	raw, err := a.client.SetWebhook(ctx, telegram.WebhookInfo{
		URL:         url,
		SecretToken: a.config.WebhookSecretToken,
	})
	if err != nil {
		return raw, fmt.Errorf("set webhook: %w", err)
	}

	return raw, nil
}

func (a *App) DeleteWebhook(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	return a.client.DeleteWebhook(ctx)
}

// Run serves the app and diag listeners until ctx is done, then shuts both
// down gracefully.
func (a *App) Run(ctx context.Context, diag http.Handler) error {
	appSrv := &http.Server{
		Addr:              a.config.Addr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	diagSrv := &http.Server{
		Addr:              a.config.DiagAddr,
		Handler:           diag,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.sugarLogger.Infow("listening", "addr", appSrv.Addr)

		return listen(appSrv)
	})
	g.Go(func() error {
		a.sugarLogger.Infow("diag listening", "addr", diagSrv.Addr)

		return listen(diagSrv)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.sugarLogger.Infow("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return multierr.Combine(
			appSrv.Shutdown(shutdownCtx),
			diagSrv.Shutdown(shutdownCtx),
		)
	})

	return g.Wait()
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	return nil
}

func diagRouter(metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/metrics", metricsHandler.ServeHTTP)

	return r
}
