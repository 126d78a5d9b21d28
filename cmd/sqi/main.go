package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/sqi/internal/handler"
	appI18n "github.com/pavelanni/sqi/internal/i18n"
	"github.com/pavelanni/sqi/internal/model"
	"github.com/pavelanni/sqi/internal/scoring"
	"github.com/pavelanni/sqi/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sqi",
		Short: "Study Quality Index scoring engine",
	}

	serve := serveCmd()
	root.AddCommand(serve, computeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `sqi --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP scoring server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":3000", "HTTP listen address")
	f.String("db", "sqi.db", "SQLite database path for prompt revisions")
	f.StringP("lang", "l", "en", "Default message language (en, ru)")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins (repeatable)")
	f.Int64("max-upload-mb", 10, "Maximum request body size in MiB")
	f.Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func computeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute SQI for an attempts file and print the output record",
		RunE:  runCompute,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "Attempts JSON file (- for stdin, required)")
	f.String("prompt-version", "", "Diagnostic prompt version tag (default: current revision in --db, or v1)")
	f.String("db", "", "SQLite database to read the current prompt version from")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("input")

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

	v.SetEnvPrefix("SQI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("sqi")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/sqi")
	v.AddConfigPath("/etc/sqi")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
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

	cfg := model.ServerConfig{
		Addr:        v.GetString("addr"),
		CORSOrigins: v.GetStringSlice("cors-origins"),
		Lang:        lang,
		MaxUpload:   v.GetInt64("max-upload-mb") << 20,
	}

	h, err := handler.New(db, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.CORS(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server",
			"addr", cfg.Addr,
			"db", v.GetString("db"),
			"lang", lang,
			"cors_origins", cfg.CORSOrigins,
			"max_upload_bytes", cfg.MaxUpload,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), v.GetDuration("shutdown-timeout"))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runCompute(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	data, err := readStudentData(v.GetString("input"))
	if err != nil {
		return err
	}

	promptVersion, err := resolvePromptVersion(cmd.Context(), v)
	if err != nil {
		return err
	}

	out, err := scoring.ComputeSQI(data, promptVersion)
	if err != nil {
		return fmt.Errorf("compute SQI: %w", err)
	}
	slog.Info("computed SQI",
		"student_id", out.StudentID,
		"overall_sqi", out.OverallSQI,
		"prompt_version", out.Metadata.DiagnosticPromptVersion,
	)

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	// Trailing newline.
	encoded = append(encoded, '\n')
	return writeOutput(v.GetString("output"), encoded)
}

// writeOutput writes data to path, or to stdout for "" and "-".
func writeOutput(path string, data []byte) (err error) {
	if path == "" || path == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func readStudentData(path string) (model.StudentData, error) {
	var data model.StudentData

	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return data, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return data, fmt.Errorf("parse %s: %w", path, err)
	}
	return data, nil
}

// resolvePromptVersion prefers an explicit --prompt-version, then the current
// revision stored in --db.
func resolvePromptVersion(ctx context.Context, v *viper.Viper) (string, error) {
	if pv := strings.TrimSpace(v.GetString("prompt-version")); pv != "" {
		return pv, nil
	}
	dbPath := v.GetString("db")
	if dbPath == "" {
		return scoring.DefaultPromptVersion, nil
	}

	db, err := store.New(dbPath)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	p, err := db.CurrentPrompt(ctx)
	if err != nil {
		return "", fmt.Errorf("load current prompt: %w", err)
	}
	return store.VersionTag(p), nil
}
