package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"

	"weekbudget/internal/core"
)

const (
	DefaultPath = "config.json"

	watchListKey = "categoryGroupWatchList"
)

// OutputKind selects how a report is emitted.
type OutputKind string

const (
	TablePrint OutputKind = "table_print"
	CSVPrint   OutputKind = "csv_print"
	CSVFile    OutputKind = "csv_output"
	VisualFile OutputKind = "visual_output"
)

// OutputFormat is a printing mode or a file destination.
type OutputFormat struct {
	Kind OutputKind
	Path string
}

type Config struct {
	BudgetName          string
	PersonalAccessToken string
	WatchList           core.WatchList
	// ResolutionDate picks the reporting week; nil means today.
	ResolutionDate *core.Date
	ShowAllRows    bool
	Output         OutputFormat

	// Ledger backend
	DataBackend      string
	DataDir          string
	SQLiteDBPath     string
	APIBaseURL       string
	RequestsPerHour  int
	FetchConcurrency int

	// Logging
	LogLevel  string
	LogFormat string

	// Google Sheets publication (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// AMQP publication (optional)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// Load reads the JSON config file at path. Environment variables override
// scalar settings; the watch list only comes from the file because its order
// and case are significant.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	v := viper.New()
	v.SetDefault("outputFormat", string(TablePrint))
	v.SetDefault("dataBackend", "ynab")
	v.SetDefault("dataDir", "data")
	v.SetDefault("sqlitePath", "./data/ledger.db")
	v.SetDefault("apiBaseURL", "https://api.ynab.com/v1")
	v.SetDefault("requestsPerHour", 200)
	v.SetDefault("fetchConcurrency", 4)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "text")
	v.SetDefault("publish.sheets.sheetName", "Weekly Report")
	v.SetDefault("publish.amqp.exchange", "weekbudget")
	v.SetDefault("publish.amqp.routingKey", "report.weekly")

	bindings := map[string][]string{
		"budgetName":                   {"WEEKBUDGET_BUDGET_NAME"},
		"personalAccessToken":          {"WEEKBUDGET_TOKEN", "YNAB_PERSONAL_ACCESS_TOKEN"},
		"resolutionDate":               {"WEEKBUDGET_RESOLUTION_DATE"},
		"showAllRows":                  {"WEEKBUDGET_SHOW_ALL_ROWS"},
		"outputFormat":                 {"WEEKBUDGET_OUTPUT_FORMAT"},
		"dataBackend":                  {"WEEKBUDGET_DATA_BACKEND"},
		"dataDir":                      {"WEEKBUDGET_DATA_DIR"},
		"sqlitePath":                   {"WEEKBUDGET_SQLITE_PATH"},
		"apiBaseURL":                   {"WEEKBUDGET_API_BASE_URL"},
		"requestsPerHour":              {"WEEKBUDGET_REQUESTS_PER_HOUR"},
		"fetchConcurrency":             {"WEEKBUDGET_FETCH_CONCURRENCY"},
		"logLevel":                     {"LOG_LEVEL"},
		"logFormat":                    {"LOG_FORMAT"},
		"publish.sheets.spreadsheetId": {"GOOGLE_SPREADSHEET_ID"},
		"publish.sheets.sheetName":     {"GOOGLE_SHEET_NAME"},
		"publish.amqp.url":             {"AMQP_URL"},
		"publish.amqp.exchange":        {"AMQP_EXCHANGE"},
		"publish.amqp.routingKey":      {"AMQP_ROUTING_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("parsing config JSON: %w", err)
	}

	watch, err := parseWatchList(raw)
	if err != nil {
		return nil, err
	}
	output, err := parseOutputFormat(v.Get("outputFormat"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BudgetName:          strings.TrimSpace(v.GetString("budgetName")),
		PersonalAccessToken: strings.TrimSpace(v.GetString("personalAccessToken")),
		WatchList:           watch,
		ShowAllRows:         v.GetBool("showAllRows"),
		Output:              output,

		DataBackend:      strings.ToLower(strings.TrimSpace(v.GetString("dataBackend"))),
		DataDir:          v.GetString("dataDir"),
		SQLiteDBPath:     v.GetString("sqlitePath"),
		APIBaseURL:       v.GetString("apiBaseURL"),
		RequestsPerHour:  v.GetInt("requestsPerHour"),
		FetchConcurrency: v.GetInt("fetchConcurrency"),

		LogLevel:  strings.ToLower(v.GetString("logLevel")),
		LogFormat: strings.ToLower(v.GetString("logFormat")),

		GoogleSpreadsheetID: v.GetString("publish.sheets.spreadsheetId"),
		GoogleSheetName:     v.GetString("publish.sheets.sheetName"),

		AMQPURL:        v.GetString("publish.amqp.url"),
		AMQPExchange:   v.GetString("publish.amqp.exchange"),
		AMQPRoutingKey: v.GetString("publish.amqp.routingKey"),
	}

	if s := strings.TrimSpace(v.GetString("resolutionDate")); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("resolutionDate: %w", err)
		}
		cfg.ResolutionDate = &d
	}

	return cfg, nil
}

// parseWatchList walks the watch-list object token by token so that group
// order and case survive.
func parseWatchList(raw []byte) (core.WatchList, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("parsing config JSON: %w", err)
	}
	body, ok := top[watchListKey]
	if !ok || string(body) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", watchListKey, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%s: expected an object of group name to colour", watchListKey)
	}

	var watch core.WatchList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", watchListKey, err)
		}
		group, _ := keyTok.(string)
		var hint string
		if err := dec.Decode(&hint); err != nil {
			return nil, fmt.Errorf("%s[%q]: %w", watchListKey, group, err)
		}
		if watch.Has(group) {
			return nil, fmt.Errorf("%s: %w: %q", watchListKey, core.ErrDuplicateWatchKey, group)
		}
		watch = watch.Set(group, hint)
	}
	return watch, nil
}

// parseOutputFormat accepts "table_print", "csv_print", {"csv_output": path}
// or {"visual_output": path}. From the environment the file forms are written
// as kind=path.
func parseOutputFormat(value any) (OutputFormat, error) {
	switch v := value.(type) {
	case nil:
		return OutputFormat{Kind: TablePrint}, nil
	case string:
		s := strings.TrimSpace(v)
		if kind, path, ok := strings.Cut(s, "="); ok {
			return OutputFormat{Kind: OutputKind(strings.TrimSpace(kind)), Path: strings.TrimSpace(path)}, nil
		}
		if s == "polars_print" {
			return OutputFormat{Kind: TablePrint}, nil
		}
		return OutputFormat{Kind: OutputKind(s)}, nil
	case map[string]any:
		if len(v) != 1 {
			return OutputFormat{}, fmt.Errorf("outputFormat: expected exactly one of %s or %s", CSVFile, VisualFile)
		}
		for k, p := range v {
			path, ok := p.(string)
			if !ok {
				return OutputFormat{}, fmt.Errorf("outputFormat.%s: path must be a string", k)
			}
			return OutputFormat{Kind: OutputKind(strings.ToLower(k)), Path: path}, nil
		}
	}
	return OutputFormat{}, fmt.Errorf("outputFormat: unsupported value %v", value)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if c.BudgetName == "" {
		errs = append(errs, "budgetName is required")
	}

	if err := c.WatchList.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid %s: %v", watchListKey, err))
	}

	validBackends := []string{"ynab", "memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "ynab":
		if c.PersonalAccessToken == "" {
			errs = append(errs, "personalAccessToken is required when using the ynab backend")
		}
		if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("invalid apiBaseURL '%s': must be an http(s) URL", c.APIBaseURL))
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "sqlitePath cannot be empty when using the sqlite backend")
		}
	case "memory":
		if c.DataDir == "" {
			errs = append(errs, "dataDir cannot be empty when using the memory backend")
		}
	}

	switch c.Output.Kind {
	case TablePrint, CSVPrint:
	case CSVFile, VisualFile:
		if strings.TrimSpace(c.Output.Path) == "" {
			errs = append(errs, fmt.Sprintf("outputFormat %s requires a file path", c.Output.Kind))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid outputFormat '%s': must be one of [%s %s %s %s]",
			c.Output.Kind, TablePrint, CSVPrint, CSVFile, VisualFile))
	}

	if c.RequestsPerHour < 1 {
		errs = append(errs, fmt.Sprintf("invalid requestsPerHour %d: must be at least 1", c.RequestsPerHour))
	}
	if c.FetchConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("invalid fetchConcurrency %d: must be at least 1", c.FetchConcurrency))
	} else if c.FetchConcurrency > 32 {
		errs = append(errs, fmt.Sprintf("invalid fetchConcurrency %d: must be at most 32", c.FetchConcurrency))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.GoogleSheetName) == "" {
		errs = append(errs, "Google Sheet name is required when a spreadsheet ID is provided")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ErrNoConfig reports that no config path was given and the default is absent.
var ErrNoConfig = errors.New("config file not found")

// ResolvePath picks the config path from the flag value, then
// WEEKBUDGET_CONFIG, then DefaultPath.
func ResolvePath(flagValue string) (string, error) {
	path := strings.TrimSpace(flagValue)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("WEEKBUDGET_CONFIG"))
	}
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return "", fmt.Errorf("stat config %s: %w", path, err)
	}
	return path, nil
}
