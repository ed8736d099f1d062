package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/editalmaster/editalmaster/internal/generate"
	"github.com/editalmaster/editalmaster/internal/handler"
	appI18n "github.com/editalmaster/editalmaster/internal/i18n"
	"github.com/editalmaster/editalmaster/internal/llm"
	"github.com/editalmaster/editalmaster/internal/model"
	"github.com/editalmaster/editalmaster/internal/session"
	"github.com/editalmaster/editalmaster/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "editalmaster",
		Short: "AI study companion for Brazilian public exam notices",
	}

	serve := serveCmd()
	root.AddCommand(serve, historyCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `editalmaster --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "editalmaster.db", "SQLite database path")
	f.String("provider", "gemini", "LLM provider (gemini, openai, mock)")
	f.String("gemini-api-key", "", "Gemini API key (or set GEMINI_API_KEY)")
	f.String("gemini-model", "gemini-2.5-flash", "Gemini model name")
	f.String("openai-url", "", "OpenAI-compatible API base URL (empty = api.openai.com)")
	f.String("openai-key", "", "API key for the OpenAI-compatible endpoint")
	f.String("openai-model", "gpt-4o-mini", "Model name for the OpenAI-compatible endpoint")
	f.StringP("lang", "l", "pt-BR", "Message language (pt-BR, en)")
	f.Int("max-attempts", 5, "Model call attempts before giving up")
	f.Duration("retry-wait", time.Second, "Base wait between model call retries")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Export score history as JSON",
		RunE:  runHistory,
	}
	f := cmd.Flags()
	f.String("db", "editalmaster.db", "SQLite database path")
	f.String("notice", "", "Only include records for this notice ID")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EDITALMASTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("editalmaster")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/editalmaster")
	v.AddConfigPath("/etc/editalmaster")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	geminiKey := v.GetString("gemini-api-key")
	if geminiKey == "" {
		geminiKey = os.Getenv("GEMINI_API_KEY")
	}

	providerName := v.GetString("provider")
	provider, err := llm.NewProvider(cmd.Context(), llm.Config{
		Provider: providerName,
		Gemini: llm.GeminiConfig{
			APIKey: geminiKey,
			Model:  v.GetString("gemini-model"),
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  v.GetString("openai-key"),
			Model:   v.GetString("openai-model"),
			BaseURL: v.GetString("openai-url"),
		},
		Retry: llm.RetryConfig{
			MaxAttempts: v.GetInt("max-attempts"),
			BaseWait:    v.GetDuration("retry-wait"),
		},
	})
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	slog.Info("LLM provider ready", "provider", providerName, "model", provider.ModelID())

	gen := generate.NewService(provider)
	sessions := session.NewManager(func(rec model.ScoreRecord) {
		if err := db.AppendScore(rec); err != nil {
			slog.Error("persist score record", "record_id", rec.ID, "error", err)
		}
	})

	h := handler.New(db, gen, sessions)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"provider", providerName,
		"model", provider.ModelID(),
		"lang", lang,
		"db", v.GetString("db"),
	)
	return http.ListenAndServe(addr, r)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	records, err := db.ListScores(v.GetString("notice"))
	if err != nil {
		return fmt.Errorf("list scores: %w", err)
	}
	if records == nil {
		records = []model.ScoreRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
