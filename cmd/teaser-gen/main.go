package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"

	"teaser-gen/config"
	"teaser-gen/core"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("Generation failed", "error", err)
		os.Exit(1)
	}
}

// keyValues collects repeated key=value flags.
type keyValues map[string]string

func (kv keyValues) String() string {
	parts := make([]string, 0, len(kv))
	for k, v := range kv {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (kv keyValues) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	kv[strings.TrimSpace(k)] = v
	return nil
}

func run(output io.Writer, args []string) error {
	flags := flag.NewFlagSet("teaser-gen", flag.ContinueOnError)
	flags.SetOutput(output)

	configFile := flags.String("config", "", "Path to configuration bundle (optional, built-in modules when empty)")
	dataSourceFile := flags.String("datasources", "", "Path to data source bundle (optional)")
	dataSourceName := flags.String("datasource", "", "Named data source from the bundles")
	templatePath := flags.String("template", "", "PowerPoint template (.pptx)")
	dataPath := flags.String("data", "", "Spreadsheet (.xlsx), CSV file or CSV directory")
	sourceType := flags.String("source", "", "Data source type: xlsx, csv, mysql, postgres, dynamodb (inferred from -data when empty)")
	dbDSN := flags.String("db-dsn", "", "Database connection string (DSN) for mysql/postgres")
	table := flags.String("table", "", "Table for mysql/postgres/dynamodb sources")
	query := flags.String("query", "", "SQL query for mysql/postgres sources")
	outputDir := flags.String("output", ".", "Root directory for output files")
	module := flags.String("module", "", "Force a module instead of detecting one")
	tone := flags.String("tone", "", "Generated text tone: short, medium, long")
	missingBlank := flags.Bool("missing-blank", false, "Render unresolved placeholders as blank text")
	namespace := flags.Bool("namespace", false, "Prefix field keys with their sheet name")
	provider := flags.String("provider", "", "Text generation provider: local, gemini, openai")
	envFile := flags.String("env-file", "", "Load environment variables from a .env file")
	s3Bucket := flags.String("s3-bucket", "", "S3 bucket name for uploading output")
	s3Prefix := flags.String("s3-prefix", "teaser-gen-output", "S3 prefix (folder) for uploaded files")
	logLevel := flags.String("log-level", "info", "Log level: debug, info, warn, error")
	filters := keyValues{}
	flags.Var(filters, "filter", "Record filter key=value (repeatable)")
	params := keyValues{}
	flags.Var(params, "param", "Run parameter key=value (repeatable)")

	if err := flags.Parse(args); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *templatePath == "" {
		return errors.New("template is required")
	}
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	ctx := context.Background()

	// 1. Load Config Bundle
	b := config.DefaultBundle()
	if *configFile != "" {
		slog.Info("Loading configuration bundle", "file", *configFile)
		loaded, err := config.LoadBundle(*configFile)
		if err != nil {
			return err
		}
		b = loaded
	}
	if *dataSourceFile != "" {
		slog.Info("Loading data source bundle", "file", *dataSourceFile)
		extra, err := config.LoadDataSourcesBundle(*dataSourceFile)
		if err != nil {
			return err
		}
		for _, ds := range extra {
			b.DataSources = append(b.DataSources, *ds)
		}
	}
	applyOverrides(b, *module, *tone, *provider, *missingBlank, *namespace)

	registry := config.NewRegistryFromBundle(b)
	if err := config.NewValidator(registry).ValidateBundle(b); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// 2. Prepare Data Source
	ds := &config.DataSourceConfig{Name: "cli", Driver: *sourceType, DSN: *dbDSN, Table: *table, Query: *query}
	if *dataSourceName != "" {
		named, err := registry.GetDataSourceConfig(*dataSourceName)
		if err != nil {
			return err
		}
		ds = named
	} else {
		if ds.Driver == "" {
			ds.Driver = inferDriver(*dataPath)
		}
		if ds.Driver == "csv" || ds.Driver == "xlsx" {
			ds.DSN = *dataPath
		}
		if err := config.NewValidator(registry).ValidateDataSource(ds); err != nil {
			return fmt.Errorf("invalid data source: %w", err)
		}
	}

	source, closeSource, err := openSource(ctx, ds, filters)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSource(); err != nil {
			slog.Warn("Failed to close data source", "error", err)
		}
	}()

	// 3. Load fields and detect the module
	fc := core.NewFillContext(b, registry, source, params)
	if err := fc.Load(ctx); err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	slog.Info("Module selected", "module", fc.Module, "detected", fc.ModuleDetected, "fields", fc.Fields.Len())

	// 4. Fill the template
	service, err := newTextService(ctx, b.Generation)
	if err != nil {
		return err
	}
	gen := core.NewDeckGenerator(fc, core.NewGenerator(service, b.Generation))
	gen.Progress = func(done, total int) {
		slog.Debug("Fill progress", "frame", done, "total", total)
	}
	res, genErr := gen.Generate(ctx, *templatePath, *outputDir)
	if res == nil {
		return fmt.Errorf("generate teaser: %w", genErr)
	}
	if genErr != nil {
		slog.Warn("Deck written with errors", "error", genErr)
	}
	slog.Info("Successfully generated", "path", res.OutputPath,
		"module", res.Module,
		"tags", res.Stats.Tags,
		"direct", res.Stats.Direct,
		"ai", res.Stats.AIGenerated,
		"blocked", res.Stats.AIBlocked,
		"unresolved", res.Stats.Unresolved,
	)

	// 5. Upload to S3 if configured
	if *s3Bucket != "" {
		slog.Info("Starting S3 upload", "bucket", *s3Bucket, "prefix", *s3Prefix)
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("unable to load AWS SDK config for S3: %w", err)
		}
		uploader := core.NewS3Uploader(cfg, *s3Bucket, *s3Prefix)
		key, err := uploader.UploadFile(ctx, res.OutputPath, map[string]string{
			"module": res.Module,
			"run-id": res.RunID,
		})
		if err != nil {
			return err
		}
		slog.Info("Successfully uploaded to S3", "key", key)
	}

	return nil
}

// applyOverrides copies non-zero flag values over the bundle.
func applyOverrides(b *config.Bundle, module, tone, provider string, missingBlank, namespace bool) {
	if module != "" {
		b.Fill.Module = module
	}
	if tone != "" {
		b.Fill.Tone = config.Tone(strings.ToLower(tone))
	}
	if missingBlank {
		b.Fill.MissingToBlank = true
	}
	if namespace {
		b.Fill.Namespacing = true
	}
	if provider != "" {
		b.Generation.Provider = strings.ToLower(provider)
		if b.Generation.APIKeyEnv == "" {
			b.Generation.APIKeyEnv = defaultAPIKeyEnv(b.Generation.Provider)
		}
	}
}

func defaultAPIKeyEnv(provider string) string {
	switch provider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "PPLX_API_KEY"
	}
	return ""
}

// newTextService returns the remote service for gen, or nil for local generation.
func newTextService(ctx context.Context, gen config.GenerationConfig) (core.TextService, error) {
	if gen.Provider != "gemini" && gen.Provider != "openai" {
		return nil, nil
	}
	apiKey := os.Getenv(gen.APIKeyEnv)
	if apiKey == "" {
		slog.Warn("API key not set, using local generation", "env", gen.APIKeyEnv, "provider", gen.Provider)
		return nil, nil
	}
	if gen.Provider == "gemini" {
		svc, err := core.NewGeminiService(ctx, apiKey, gen.Model)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
	return core.NewChatCompletionsService(gen.Endpoint, gen.Model, apiKey), nil
}

func inferDriver(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return "csv"
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csv"
	}
	return "xlsx"
}

// openSource builds the DataSource for ds. The returned func releases its resources.
func openSource(ctx context.Context, ds *config.DataSourceConfig, filters map[string]string) (core.DataSource, func() error, error) {
	noop := func() error { return nil }

	switch ds.Driver {
	case "dynamodb":
		slog.Info("Initializing DynamoDB data source", "table", ds.Table)
		// Load AWS Config (handles env vars, IAM roles, etc.)
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
		}
		return core.NewDynamoDBSource(cfg, ds.Table, filters), noop, nil
	case "mysql", "postgres":
		slog.Info("Initializing SQL data source", "type", ds.Driver)
		db, err := sql.Open(ds.Driver, ds.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping db: %w", err)
		}
		return core.NewSQLSource(db, ds.Driver, ds.Table, ds.Query, filters), db.Close, nil
	case "csv":
		slog.Info("Initializing CSV data source", "path", ds.DSN)
		return core.NewCsvSource(ds.DSN, filters), noop, nil
	default:
		slog.Info("Initializing spreadsheet data source", "path", ds.DSN)
		if len(filters) > 0 {
			slog.Warn("Filters are ignored for spreadsheet sources")
		}
		return core.NewXlsxSource(ds.DSN), noop, nil
	}
}
