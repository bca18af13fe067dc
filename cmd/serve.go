package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/proposalkb/proposalkb/db"
	"github.com/proposalkb/proposalkb/internal/config"
	"github.com/proposalkb/proposalkb/internal/embedding"
	"github.com/proposalkb/proposalkb/internal/experience"
	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/mcp"
	"github.com/proposalkb/proposalkb/internal/notify"
	"github.com/proposalkb/proposalkb/internal/proposal"
	"github.com/proposalkb/proposalkb/internal/search"
	"github.com/proposalkb/proposalkb/internal/store"
	"github.com/proposalkb/proposalkb/internal/validation"
)

var serveHTTP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server on stdio (default) or streamable HTTP (--http).

Stdio is the transport MCP clients spawn directly; HTTP serves multiple
clients from one process and honors the stateless_http setting.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), serveHTTP)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "serve streamable HTTP instead of stdio")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context, httpMode bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(log.Config{Level: parseLogLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()

	st, err := store.New(pool, logger)
	if err != nil {
		return err
	}

	embedder, err := embedding.NewGemini(ctx, cfg.GeminiAPIKey, cfg.EmbedderModel, cfg.EmbedderDimension, logger)
	if err != nil {
		return fmt.Errorf("creating embedding client: %w", err)
	}

	var defaultTenant *uuid.UUID
	if cfg.DefaultTenantID != "" {
		id, err := uuid.Parse(cfg.DefaultTenantID)
		if err != nil {
			return fmt.Errorf("invalid default_tenant_id %q: %w", cfg.DefaultTenantID, err)
		}
		defaultTenant = &id
	}

	facade, err := search.New(st, embedder, logger)
	if err != nil {
		return err
	}
	recorder, err := experience.NewRecorder(st, embedder, defaultTenant, logger)
	if err != nil {
		return err
	}
	parser, err := proposal.NewParser(st, embedder, defaultTenant, logger)
	if err != nil {
		return err
	}
	generator, err := proposal.NewGenerator(st, facade, logger)
	if err != nil {
		return err
	}
	teams, err := notify.NewTeamsSender(cfg.TeamsAccessToken, cfg.PortalBaseURL, st, logger)
	if err != nil {
		return err
	}
	email, err := notify.NewEmailSender(notify.EmailConfig{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		Username:      cfg.SMTPUser,
		Password:      cfg.SMTPPassword,
		From:          cfg.EmailFrom,
		PortalBaseURL: cfg.PortalBaseURL,
	}, st, logger)
	if err != nil {
		return err
	}
	processor, err := validation.NewProcessor(st, recorder, logger)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:      "proposalkb",
		Version:   Version,
		Searcher:  facade,
		Recorder:  recorder,
		Parser:    parser,
		Generator: generator,
		Teams:     teams,
		Email:     email,
		Processor: processor,
		Lister:    st,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	if httpMode {
		return serveStreamableHTTP(ctx, cfg, server, logger)
	}

	logger.Info("MCP server ready", "transport", "stdio", "version", Version,
		"email_configured", cfg.EmailConfigured(), "teams_configured", cfg.TeamsConfigured())
	if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	logger.Info("MCP server shut down")
	return nil
}

func serveStreamableHTTP(ctx context.Context, cfg *config.Config, server *mcp.Server, logger log.Logger) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(*http.Request) *mcpsdk.Server { return server.MCPServer() },
		&mcpsdk.StreamableHTTPOptions{Stateless: cfg.StatelessHTTP},
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready", "transport", "http", "addr", cfg.HTTPAddr,
			"stateless", cfg.StatelessHTTP, "version", Version)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	logger.Info("MCP server shut down")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
