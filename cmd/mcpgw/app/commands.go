// Package app wires mcpgw's cobra command tree: serve (gateway mode),
// bridge (client-bridge mode), validate (load a registry without
// starting sessions), and status (query a running gateway).
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/mcp-vgateway/pkg/bridge"
	"github.com/stacklok/mcp-vgateway/pkg/logger"
	"github.com/stacklok/mcp-vgateway/pkg/transport"
	"github.com/stacklok/mcp-vgateway/pkg/vgw"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/backend"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/dispatcher"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/registry"
)

var rootCmd = &cobra.Command{
	Use:               "mcpgw",
	DisableAutoGenTag: true,
	Short:             "MCP Virtual Gateway - aggregate MCP backend servers behind one curated tool surface",
	Long: `mcpgw aggregates many heterogeneous MCP backend servers and republishes
them as a single MCP endpoint. Each advertised tool is a virtual tool: a
declarative transformation of a backend tool (renamed, defaulted, schema
narrowed, output projected).`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logger.Errorf("error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		level := viper.GetString("log-level")
		if debug {
			level = "debug"
		}
		logger.InitializeWithLevel(level, debug)
	},
}

// NewRootCmd builds the mcpgw command tree.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug-level, console-encoded logging")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newBridgeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway: load a registry, connect backends, and expose the virtual-tool catalog over MCP",
		RunE:  runServe,
	}
	cmd.Flags().String("named-server-config", "", "path to the registry document (required)")
	cmd.Flags().String("host", "127.0.0.1", "host to bind to")
	cmd.Flags().Int("port", 8080, "port to listen on")
	cmd.Flags().Bool("stateless", false, "disable Mcp-Session-Id based session tracking")
	cmd.Flags().StringSlice("allow-origin", nil, "CORS allowed origins; omit to disable CORS")
	cmd.Flags().Bool("pass-environment", false, "pass the gateway process environment through to stdio backends")
	return cmd
}

func newBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge <url>",
		Short: "Expose a remote gateway's SSE or streamable-HTTP endpoint as a local stdio MCP server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transportFlag, _ := cmd.Flags().GetString("transport")
			verifySSL, err := resolveVerifySSL(cmd)
			if err != nil {
				return err
			}
			clientID, _ := cmd.Flags().GetString("client-id")
			clientSecret, _ := cmd.Flags().GetString("client-secret")
			tokenURL, _ := cmd.Flags().GetString("token-url")

			return bridge.Run(cmd.Context(), args[0], bridge.Options{
				Transport:    bridge.Transport(transportFlag),
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenURL:     tokenURL,
				VerifySSL:    verifySSL,
			})
		},
	}
	cmd.Flags().String("transport", "sse", "transport to dial the remote gateway with: sse or streamablehttp")
	cmd.Flags().String("client-id", "", "OAuth2 client ID for client-credentials authentication to the remote gateway")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret for client-credentials authentication to the remote gateway")
	cmd.Flags().String("token-url", "", "OAuth2 token URL for client-credentials authentication to the remote gateway")
	cmd.Flags().String("verify-ssl", "", "control TLS verification when dialing the remote gateway: empty means verify, \"false\" disables it")
	cmd.Flags().Bool("no-verify-ssl", false, "disable TLS verification when dialing the remote gateway (alias for --verify-ssl=false)")
	return cmd
}

// resolveVerifySSL folds --verify-ssl/--no-verify-ssl into a single
// tri-state value: nil means "use the default (verify)", non-nil selects
// the explicit on/off the caller asked for. --no-verify-ssl wins if both
// are given, matching the original client's const=False override.
func resolveVerifySSL(cmd *cobra.Command) (*bool, error) {
	noVerify, _ := cmd.Flags().GetBool("no-verify-ssl")
	if noVerify {
		disabled := false
		return &disabled, nil
	}

	raw, _ := cmd.Flags().GetString("verify-ssl")
	if raw == "" {
		return nil, nil
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		enabled := true
		return &enabled, nil
	case "false", "0", "no", "off":
		disabled := false
		return &disabled, nil
	default:
		return nil, fmt.Errorf("invalid --verify-ssl value %q: expected true or false", raw)
	}
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <registry-path>",
		Short: "Load and validate a registry document without starting any backend sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			result, err := loadRegistry(args[0])
			if err != nil {
				return err
			}
			logger.Infof("loaded %d backend(s), %d tool(s)", len(result.Servers), len(result.Tools))
			if err := renderServerTable(result.Servers); err != nil {
				return err
			}
			return renderToolTable(result.Tools)
		},
	}
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <gateway-url>",
		Short: "Query a running gateway's /status endpoint and print its tool table",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			status, err := fetchStatus(args[0])
			if err != nil {
				return err
			}
			return renderRemoteStatus(status)
		},
	}
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			logger.Infof("mcpgw version: %s", getVersion())
		},
	}
}

func getVersion() string {
	// Replaced with actual version info using ldflags at release build time.
	return "dev"
}

// loadRegistry reads and resolves the registry document at path into a
// registry.Result (C5), independent of whether any session is started.
func loadRegistry(path string) (*registry.Result, error) {
	doc, err := registry.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry document: %w", err)
	}
	result, err := registry.Load(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return result, nil
}

// runServe implements the serve command: load the registry, bring up
// backend sessions (C6), validate their tools (C4), then serve the
// virtual-tool catalog over HTTP (C7/C8) until the context is canceled.
func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	configPath, _ := cmd.Flags().GetString("named-server-config")
	if configPath == "" {
		return fmt.Errorf("--named-server-config is required in gateway mode")
	}

	result, err := loadRegistry(configPath)
	if err != nil {
		return err
	}
	logger.Infof("registry loaded: %d backend(s), %d virtual tool(s)", len(result.Servers), len(result.Tools))

	if passEnv, _ := cmd.Flags().GetBool("pass-environment"); passEnv {
		applyProcessEnvironment(result.Servers)
	}

	mgr := backend.NewManager()
	startCtx, cancelStart := context.WithTimeout(ctx, 30*time.Second)
	defer cancelStart()
	if err := mgr.Start(startCtx, result.Servers); err != nil {
		return fmt.Errorf("failed to bring up backend sessions: %w", err)
	}

	mgr.ValidateAll(ctx, result.Tools)

	disp := dispatcher.New(result.Tools, dispatcher.NewManagerSource(mgr))

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	addr := fmt.Sprintf("%s:%d", host, port)

	allowOrigins, _ := cmd.Flags().GetStringSlice("allow-origin")
	stateless, _ := cmd.Flags().GetBool("stateless")
	srv := transport.New(addr, disp, result.Tools, mgr, allowOrigins, stateless)

	serveErr := srv.Run(ctx)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	mgr.Shutdown(shutdownCtx)

	return serveErr
}

// applyProcessEnvironment merges the gateway process's own environment
// into every stdio backend's declared env, without overriding a value the
// registry document already set explicitly. Opt-in via --pass-environment;
// it lets a stdio backend inherit ambient credentials (e.g. a cloud SDK's
// default profile) without the registry author enumerating every var.
func applyProcessEnvironment(servers map[string]*vgw.ServerConfig) {
	for _, cfg := range servers {
		if !cfg.IsStdio() {
			continue
		}
		if cfg.Env == nil {
			cfg.Env = make(map[string]string)
		}
		for _, kv := range os.Environ() {
			name, value, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			if _, exists := cfg.Env[name]; !exists {
				cfg.Env[name] = value
			}
		}
	}
}
