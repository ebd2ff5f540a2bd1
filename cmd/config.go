package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "checkin"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage checkin configuration.

Running bare 'checkin config' is the same as 'checkin config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# checkin configuration
# See: checkin config show (for effective values and sources)

# State/data directory (default: ~/.config/checkin)
# state_dir: {{ .StateDir }}

# SQLite database holding your identity and check-ins
# db_path: {{ .DBPath }}

# Organization name used in the wizard and the insight prompt
organization: "{{ .Organization }}"

# Diagnostics on stderr: debug, info, warn or error
log:
  level: "{{ .LogLevel }}"

# Remote sheet every check-in is copied to
sheets:
  # Endpoint URL (a spreadsheet web app or 'checkin sheet serve')
  url: "{{ .SheetsURL }}"
  timeout: {{ .SheetsTimeout }}
  # Also ask the endpoint whether this month is already done
  check_remote: {{ .SheetsCheckRemote }}

# Feedback shown after submitting
insight:
  # gemini, anthropic or none
  provider: "{{ .InsightProvider }}"
  timeout: {{ .InsightTimeout }}

gemini:
  # api_key: set CHECKIN_GEMINI_API_KEY instead of storing it here
  model: "{{ .GeminiModel }}"

anthropic:
  # api_key: set CHECKIN_ANTHROPIC_API_KEY instead of storing it here
  model: "{{ .AnthropicModel }}"

# Local sheet endpoint ('checkin sheet serve')
sheet:
  port: {{ .SheetPort }}
  # db_path: {{ .SheetDBPath }}

# Default directory for 'checkin admin export'
export:
  dir: "{{ .ExportDir }}"
`

type configTemplateData struct {
	StateDir          string
	DBPath            string
	Organization      string
	LogLevel          string
	SheetsURL         string
	SheetsTimeout     string
	SheetsCheckRemote bool
	InsightProvider   string
	InsightTimeout    string
	GeminiModel       string
	AnthropicModel    string
	SheetPort         int
	SheetDBPath       string
	ExportDir         string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:          viper.GetString("state_dir"),
		DBPath:            viper.GetString("db_path"),
		Organization:      viper.GetString("organization"),
		LogLevel:          viper.GetString("log.level"),
		SheetsURL:         viper.GetString("sheets.url"),
		SheetsTimeout:     viper.GetDuration("sheets.timeout").String(),
		SheetsCheckRemote: viper.GetBool("sheets.check_remote"),
		InsightProvider:   viper.GetString("insight.provider"),
		InsightTimeout:    viper.GetDuration("insight.timeout").String(),
		GeminiModel:       viper.GetString("gemini.model"),
		AnthropicModel:    viper.GetString("anthropic.model"),
		SheetPort:         viper.GetInt("sheet.port"),
		SheetDBPath:       viper.GetString("sheet.db_path"),
		ExportDir:         viper.GetString("export.dir"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "CHECKIN_STATE_DIR"},
	{Key: "db_path", EnvVar: "CHECKIN_DB_PATH"},
	{Key: "organization", EnvVar: "CHECKIN_ORGANIZATION"},
	{Key: "log.level", EnvVar: "CHECKIN_LOG_LEVEL"},
	{Key: "sheets.url", EnvVar: "CHECKIN_SHEETS_URL"},
	{Key: "sheets.timeout", EnvVar: "CHECKIN_SHEETS_TIMEOUT"},
	{Key: "sheets.check_remote", EnvVar: "CHECKIN_SHEETS_CHECK_REMOTE"},
	{Key: "insight.provider", EnvVar: "CHECKIN_INSIGHT_PROVIDER"},
	{Key: "insight.timeout", EnvVar: "CHECKIN_INSIGHT_TIMEOUT"},
	{Key: "gemini.api_key", EnvVar: "CHECKIN_GEMINI_API_KEY"},
	{Key: "gemini.model", EnvVar: "CHECKIN_GEMINI_MODEL"},
	{Key: "anthropic.api_key", EnvVar: "CHECKIN_ANTHROPIC_API_KEY"},
	{Key: "anthropic.model", EnvVar: "CHECKIN_ANTHROPIC_MODEL"},
	{Key: "sheet.port", EnvVar: "CHECKIN_SHEET_PORT"},
	{Key: "sheet.db_path", EnvVar: "CHECKIN_SHEET_DB_PATH"},
	{Key: "sheet.allowed_origins", EnvVar: "CHECKIN_SHEET_ALLOWED_ORIGINS"},
	{Key: "export.dir", EnvVar: "CHECKIN_EXPORT_DIR"},
}

func configShowRun() error {
	cfgPath := viper.ConfigFileUsed()
	if cfgPath == "" {
		p, err := configFilePath()
		if err != nil {
			return err
		}
		cfgPath = p
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	fileValues := readConfigFileValues(cfgPath)

	table := ui.Table([]string{"Key", "Value", "Source"})
	for _, k := range configKeys {
		val := fmt.Sprint(viper.Get(k.Key))
		if isSecretKey(k.Key) {
			val = maskSecret(viper.GetString(k.Key))
		}
		if err := table.Append([]string{k.Key, val, detectSource(k.Key, k.EnvVar, fileValues)}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return table.Render()
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'checkin config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}

// maskSecret keeps only the last four characters of a configured secret.
func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
