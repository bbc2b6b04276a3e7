package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talvik/intervu/internal/ai/gemini"
	"github.com/talvik/intervu/internal/interview"
	"github.com/talvik/intervu/internal/logger"
	"github.com/talvik/intervu/internal/secrets"
	"github.com/talvik/intervu/internal/server"
	"github.com/talvik/intervu/internal/store"
)

const defaultListenAddress = ":8000"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview server",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default is :8000)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

// serve is the main command for the service.
func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the intervu server", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Server.Address == "" {
		config.Server.Address = defaultListenAddress
	}

	st, cleanup, err := newStore(ctx, config.Database, logger)
	if err != nil {
		logger.Fatal("building the session store", zap.Error(err))
	}
	defer cleanup()

	agents, err := newAgents(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal(
			"building the interview agents",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	orchestrator := interview.NewOrchestrator(agents.Agents(), st, interviewConfig(config.Interview), logger)

	srv := server.New(config.Server, st, orchestrator, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}

	logger.Info("server stopped")
}

func interviewConfig(cfg *InterviewConfig) interview.Config {
	if cfg == nil {
		return interview.Config{}
	}
	return interview.Config{
		MaxRounds:     cfg.MaxRounds,
		EndPhrase:     cfg.EndPhrase,
		AnswerTimeout: cfg.AnswerTimeout,
	}
}

// newStore picks postgres when a database url is configured and falls back
// to the in-memory store otherwise.
func newStore(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (store.Store, func(), error) {
	if cfg == nil || cfg.URL == "" {
		logger.Warn("no database configured, sessions will not survive restarts")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.NewPostgres(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	logger.Info("connected to postgres")
	return pg, pg.Close, nil
}

func newAgents(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Suite, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	geminiCfg := cfg.Gemini
	if geminiCfg == nil {
		geminiCfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: geminiCfg.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", geminiCfg.Model),
		zap.Int("ai_retry_attempts", geminiCfg.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, geminiCfg.Model, geminiCfg.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewSuite(generator, gemini.SuiteConfig{
		Model:         geminiCfg.Model,
		VerifierModel: geminiCfg.VerifierModel,
	}, logger), nil
}
