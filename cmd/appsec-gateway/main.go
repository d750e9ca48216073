// ABOUTME: Entry point for the appsec-gateway server
// ABOUTME: Authenticates dashboard users and brokers sessions with the analysis agent

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/crypto/bcrypt"

	"github.com/appsecdash/appsec-gateway/internal/account"
	"github.com/appsecdash/appsec-gateway/internal/agent"
	"github.com/appsecdash/appsec-gateway/internal/auth"
	"github.com/appsecdash/appsec-gateway/internal/config"
	"github.com/appsecdash/appsec-gateway/internal/gateway"
	"github.com/appsecdash/appsec-gateway/internal/session"
	"github.com/appsecdash/appsec-gateway/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                            _           _
  __ _ _ __  _ __  ___  ___  ___        __ _| |_ ___  __| |
 / _' | '_ \| '_ \/ __|/ _ \/ __|_____ / _' | __/ _ \/ _' |
| (_| | |_) | |_) \__ \  __/ (_|______| (_| | ||  __/ (_| |
 \__,_| .__/| .__/|___/\___|\___|      \__, |\__\___|\__,_|
      |_|   |_|                        |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: APPSEC_CONFIG env var > XDG_CONFIG_HOME/appsec-gateway/gateway.yaml > ~/.config/appsec-gateway/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("APPSEC_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "appsec-gateway", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: appsec-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the gateway server")
		fmt.Println("  init    Create a new config file interactively")
		fmt.Println("  health  Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration: a YAML config file when present,
// otherwise the environment-only profile.
func loadConfig(ctx context.Context) (*config.Config, string, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		cfg, err := config.Load(configPath)
		return cfg, configPath, err
	}

	cfg, err := config.LoadEnv(ctx)
	return cfg, "(environment)", err
}

func runServe(ctx context.Context) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Agent:    %s\n", cfg.Agent.Endpoint)
	fmt.Println()

	if cfg.InsecureSecret() {
		logger.Warn("serving with the default JWT secret - set APPSEC_JWT_SECRET before exposing this service")
	}
	if cfg.Agent.APIKey == "" {
		logger.Warn("ANTHROPIC_API_KEY is not set - chat and analysis endpoints will fail until it is configured")
	}

	logger.Info("starting appsec-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"db_path", cfg.Database.Path,
	)

	users, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening user store: %w", err)
	}
	defer users.Close()

	tokens := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(bcrypt.DefaultCost)
	accounts := account.NewService(users, hasher, tokens, logger)

	if err := accounts.EnsureDefaultAdmin(ctx); err != nil {
		return fmt.Errorf("bootstrapping default admin: %w", err)
	}

	runner := agent.NewHTTPRunner(cfg.Agent.Endpoint, cfg.Agent.APIKey, cfg.Agent.Timeout)
	agents := agent.NewFacade(runner, logger)
	sessions := session.NewRegistry(logger)

	gw, err := gateway.New(cfg, accounts, sessions, agents, tokens, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			out:   os.Stdout,
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
// Attribute keys are qualified with the open group path, so
// WithGroup("http") renders a status attr as http.status.
type colorHandler struct {
	mu     sync.Mutex
	out    io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// qualify prefixes key with the open group path.
func (h *colorHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

func (h *colorHandler) levelTag(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return color.MagentaString("DBG ")
	case slog.LevelInfo:
		return color.CyanString("INF ")
	case slog.LevelWarn:
		return color.YellowString("WRN ")
	case slog.LevelError:
		return color.New(color.FgRed, color.Bold).Sprint("ERR ")
	default:
		return "??? "
	}
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))
	buf.WriteString(h.levelTag(r.Level))
	buf.WriteString(r.Message)

	// Handler-level attrs are stored pre-qualified by WithAttrs; record
	// attrs pick up the groups open at log time.
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + h.qualify(a.Key) + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	_, err := fmt.Fprint(h.out, buf.String())
	return err
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		a.Key = h.qualify(a.Key)
		newAttrs = append(newAttrs, a)
	}
	return &colorHandler{
		out:    h.out,
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		out:    h.out,
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return defaultValue
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("appsec-gateway configuration setup")
	fmt.Println("==================================")
	fmt.Println()

	defaultConfigPath := getConfigPath()

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:3001")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", "data/users.db")

	fmt.Println("\n--- Agent Configuration ---")
	agentEndpoint := prompt(reader, "Agent service endpoint", "http://localhost:8700")
	agentRole := prompt(reader, "Default agent role", "simple_query_agent")
	reportsDir := prompt(reader, "Reports directory", "reports")

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# appsec-gateway configuration\n")
	cfg.WriteString("# Generated by appsec-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n\n", httpAddr))

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n\n", dbPath))

	cfg.WriteString("auth:\n")
	cfg.WriteString("  jwt_secret: ${APPSEC_JWT_SECRET}\n")
	cfg.WriteString("  token_ttl: 168h\n\n")

	cfg.WriteString("agent:\n")
	cfg.WriteString("  api_key: ${ANTHROPIC_API_KEY}\n")
	cfg.WriteString(fmt.Sprintf("  endpoint: %q\n", agentEndpoint))
	cfg.WriteString(fmt.Sprintf("  default_role: %q\n", agentRole))
	cfg.WriteString(fmt.Sprintf("  reports_dir: %q\n\n", reportsDir))

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n\n", logFormat))

	cfg.WriteString("metrics:\n")
	cfg.WriteString("  enabled: true\n")

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("Set APPSEC_JWT_SECRET and ANTHROPIC_API_KEY before serving.")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/api/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
