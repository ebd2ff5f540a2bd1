package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/checkin/internal/insight"
	"github.com/joescharf/checkin/internal/output"
	"github.com/joescharf/checkin/internal/sheets"
	"github.com/joescharf/checkin/internal/store"
	"github.com/joescharf/checkin/internal/tui"
	"github.com/joescharf/checkin/internal/workflow"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	logger    *slog.Logger
	dataStore *store.SQLiteStore

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Monthly developer check-in",
	Long: `checkin records a short monthly check-in per developer: sprint
completion, bug count, satisfaction and an optional comment.

Running bare 'checkin' opens the interactive wizard. Each submission is
kept locally, sent to the team sheet endpoint and answered with a short
AI-generated insight.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	defer closeStore()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeStore()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd.Context())
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/checkin/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CHECKIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	dir, _ := configDirFunc()
	setDefaults(dir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every configuration key rooted at dir.
func setDefaults(dir string) {
	viper.SetDefault("state_dir", dir)
	viper.SetDefault("db_path", filepath.Join(dir, "checkin.db"))
	viper.SetDefault("organization", insight.DefaultOrganization)
	viper.SetDefault("log.level", "warn")

	viper.SetDefault("sheets.url", "")
	viper.SetDefault("sheets.timeout", 10*time.Second)
	viper.SetDefault("sheets.check_remote", false)

	viper.SetDefault("insight.provider", insight.ProviderGemini)
	viper.SetDefault("insight.timeout", 20*time.Second)
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("gemini.model", insight.DefaultGeminiModel)
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", insight.DefaultAnthropicModel)

	viper.SetDefault("sheet.port", 8787)
	viper.SetDefault("sheet.db_path", filepath.Join(dir, "sheet.db"))
	viper.SetDefault("sheet.allowed_origins", []string{"*"})

	viper.SetDefault("export.dir", ".")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	logger = newLogger(viper.GetString("log.level"), verbose)
	slog.SetDefault(logger)

	// Store is opened lazily by getStore, so config and version run without a database.
}

// newLogger builds the stderr diagnostics logger. --verbose forces debug.
func newLogger(level string, verbose bool) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "info":
		lvl.Set(slog.LevelInfo)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelWarn)
	}
	if verbose {
		lvl.Set(slog.LevelDebug)
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

// rootRun handles `checkin` with no subcommand: open the wizard.
func rootRun(ctx context.Context) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	wf, requester := newWorkflow(ctx, s)

	identity, _, err := wf.CurrentIdentity(ctx)
	if err != nil {
		return err
	}

	model := tui.New(ctx, wf, identity, requester.Organization())
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("run wizard: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// getStore returns the shared store, initializing it on first call.
func getStore() (*store.SQLiteStore, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	s, err := openStore(viper.GetString("db_path"))
	if err != nil {
		return nil, err
	}
	dataStore = s
	return dataStore, nil
}

// openStore opens and migrates the SQLite file at path.
func openStore(path string) (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func closeStore() {
	if dataStore != nil {
		_ = dataStore.Close()
		dataStore = nil
	}
}

// newSheetsClient builds the remote recorder from configuration.
func newSheetsClient() *sheets.Client {
	return sheets.NewClient(viper.GetString("sheets.url"), viper.GetDuration("sheets.timeout"), logger)
}

// newRequester builds the insight requester. A provider that cannot be set
// up degrades to the fallback message instead of failing the command.
func newRequester(ctx context.Context) *insight.Requester {
	gen, err := insight.NewGenerator(ctx, insight.ProviderConfig{
		Provider:        viper.GetString("insight.provider"),
		GeminiAPIKey:    viper.GetString("gemini.api_key"),
		GeminiModel:     viper.GetString("gemini.model"),
		AnthropicAPIKey: viper.GetString("anthropic.api_key"),
		AnthropicModel:  viper.GetString("anthropic.model"),
	})
	if err != nil {
		logger.Warn("insight provider unavailable, using fallback message", "error", err)
		gen = nil
	}
	return insight.NewRequester(gen, viper.GetString("organization"), viper.GetDuration("insight.timeout"), logger)
}

// newWorkflow wires the workflow over s with the configured collaborators.
func newWorkflow(ctx context.Context, s store.Store) (*workflow.Workflow, *insight.Requester) {
	requester := newRequester(ctx)
	wf := workflow.New(s, newSheetsClient(), requester, workflow.Options{
		CheckRemote: viper.GetBool("sheets.check_remote"),
		Logger:      logger,
	})
	return wf, requester
}

// requireIdentity returns the stored identity or a hint to log in.
func requireIdentity(ctx context.Context, wf *workflow.Workflow) (string, error) {
	identity, ok, err := wf.CurrentIdentity(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w (run 'checkin login <email>')", workflow.ErrNotLoggedIn)
	}
	return identity, nil
}
