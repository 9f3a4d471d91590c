//
// BHOLA BOT
// =========
// A Telegram bot that puts "bhola" in front of whatever you send it, served
// over a webhook, plus a tiny JSON API doing the same thing.
//
// Boot the server:
// ----------------
// $ TELEGRAM_BOT_TOKEN=... WEBHOOK_SECRET_TOKEN=... go run .
//
// Settings come from the environment or a .env file. Set PUBLIC_BASE_URL (or
// run on Render, which sets RENDER_EXTERNAL_URL) to register the webhook
// with Telegram on startup.
//
// Client requests:
// ----------------
// $ curl http://localhost:8000/healthz
// {"ok":true}
//
// $ curl -X POST -d '{"text":"world"}' http://localhost:8000/process
// {"result":"bhola world"}
//
// $ curl http://localhost:9999/metrics
//
// Also check the route docs, to generate them do: `go run . routes`
//
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/docgen"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/bhola-bot/internal/applog"
	"github.com/SergeyParamoshkin/bhola-bot/internal/config"
	"github.com/SergeyParamoshkin/bhola-bot/internal/metrics"
)

const ServiceName = "bhola"

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

type cli struct {
	envFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:          ServiceName,
		Short:        "Telegram webhook bot that prefixes your text with 'bhola'",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(c.envFile)
			if err != nil {
				return err
			}

			c.v = v

			return c.bindFlags(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file to read settings from, if present")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	serve := c.serveCmd()
	cmd.AddCommand(serve, c.routesCmd(), c.webhookCmd())

	// Running without a subcommand serves.
	cmd.RunE = serve.RunE
	cmd.Flags().AddFlagSet(serve.Flags())

	return cmd
}

// bindFlags binds the flags cmd knows about into the viper instance.
func (c *cli) bindFlags(cmd *cobra.Command) error {
	for key, name := range map[string]string{
		config.KeyLogLevel: "log-level",
		config.KeyHost:     "host",
		config.KeyPort:     "port",
		config.KeyDiagAddr: "diag-addr",
	} {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}

		if err := c.v.BindPFlag(key, f); err != nil {
			return err
		}
	}

	return nil
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhook and the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return c.serve(ctx)
		},
	}

	cmd.Flags().String("host", "0.0.0.0", "application host")
	cmd.Flags().Int("port", 8000, "application port (env PORT)")
	cmd.Flags().String("diag-addr", ":9999", "diag address serving /metrics")

	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	defer logger.Sync() // flushes buffer, if any

	sugar := logger.Sugar()

	exporter, err := metrics.NewExporter()
	if err != nil {
		sugar.Errorw("failed to initialize prometheus exporter", "error", err)

		return err
	}

	a := NewApp(cfg, sugar, metrics.New(exporter.MeterProvider().Meter(ServiceName)))

	sugar.Infow("starting", "version", version, "public_base_url", cfg.PublicBaseURL)

	if err := a.Startup(ctx); err != nil {
		sugar.Errorw("startup failed", "error", err)

		return err
	}

	if err := a.Run(ctx, diagRouter(exporter)); err != nil {
		sugar.Errorw("server stopped", "error", err)

		return err
	}

	return nil
}

func (c *cli) routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the router documentation as markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := NewApp(&config.Settings{}, zap.NewNop().Sugar(), metrics.Noop())

			_, err := fmt.Fprintln(cmd.OutOrStdout(), docgen.MarkdownRoutesDoc(a.Router(), docgen.MarkdownOpts{
				ProjectPath: "github.com/SergeyParamoshkin/bhola-bot",
				Intro:       "Routes served by the bhola bot.",
			}))

			return err
		},
	}
}

func (c *cli) webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}

	var url string

	set := &cobra.Command{
		Use:   "set",
		Short: "Register the webhook with Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if url == "" {
				url = cfg.WebhookURL()
			}

			if url == "" {
				return errors.New("no webhook url: pass --url or set PUBLIC_BASE_URL")
			}

			raw, err := NewApp(cfg, logger.Sugar(), metrics.Noop()).SetWebhook(cmd.Context(), url)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))

			return err
		},
	}
	set.Flags().StringVar(&url, "url", "", "webhook url (default PUBLIC_BASE_URL + "+config.WebhookPath+")")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := NewApp(cfg, logger.Sugar(), metrics.Noop()).DeleteWebhook(cmd.Context()); err != nil {
				return err
			}

			logger.Sugar().Infow("webhook deleted")

			return nil
		},
	}

	cmd.AddCommand(set, del)

	return cmd
}

func (c *cli) load() (*config.Settings, *zap.Logger, error) {
	cfg, err := config.Load(c.v)
	if err != nil {
		return nil, nil, err
	}

	logger, err := applog.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	zap.ReplaceGlobals(logger)

	return cfg, logger, nil
}
