// Command thoth is the terminal client for the THOTH backend: interactive
// chat, account management, and file sync from one binary.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	chatui "thoth/cmd/thoth/chat"
	"thoth/internal/api"
	"thoth/internal/auth"
	"thoth/internal/chat"
	"thoth/internal/config"
	"thoth/internal/files"
	"thoth/internal/heartbeat"
	"thoth/internal/logging"
	"thoth/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	backendURL string

	logger *zap.Logger
)

// app bundles the wired components the commands share.
type app struct {
	cfg      *config.Config
	stateDir string
	store    *auth.Store
	gate     *auth.Gate
	client   *api.Client
	files    *files.Controller
}

func newApp() (*app, error) {
	stateDir := config.DefaultStateDir()

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if backendURL != "" {
		cfg.Backend.BaseURL = backendURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Init(stateDir, cfg.Logging.DebugMode || verbose); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("thoth %s starting, backend=%s", cfg.Version, cfg.Backend.BaseURL)

	credStore := auth.NewStore(filepath.Join(stateDir, "credentials.json"))
	gate := auth.NewGate(credStore)
	client := api.NewClientWithConfig(api.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.GetBackendTimeout(),
		UserAgent: "thoth-cli/" + cfg.Version,
	})

	return &app{
		cfg:      cfg,
		stateDir: stateDir,
		store:    credStore,
		gate:     gate,
		client:   client,
		files:    files.NewController(gate, client),
	}, nil
}

// rootCmd launches the interactive chat interface by default.
var rootCmd = &cobra.Command{
	Use:   "thoth",
	Short: "thoth - terminal client for the THOTH assistant",
	Long: `thoth is a terminal client for the THOTH assistant backend.

Run without arguments to start the interactive chat interface.
Use the subcommands to manage your account and files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive chat has its own UI; keep its terminal clean.
		if !cmd.HasParent() {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		username, err := promptLine("Username: ")
		if err != nil {
			return err
		}
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}

		token, err := a.client.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		if err := a.store.Set(username, token); err != nil {
			return fmt.Errorf("failed to persist credential: %w", err)
		}

		logging.Session("logged in as %s", username)
		fmt.Printf("Logged in as %s.\n", username)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		username, err := promptLine("Username: ")
		if err != nil {
			return err
		}
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		phone, err := promptLine("Phone number (11 digits): ")
		if err != nil {
			return err
		}

		if err := a.client.Register(cmd.Context(), username, password, phone); err != nil {
			return err
		}
		fmt.Println("Account created. You can now log in with `thoth login`.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.store.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		cred := a.store.Get()
		if !cred.Authenticated() {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Println(cred.DisplayName)
		return nil
	},
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show your account dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		cred := a.store.Get()
		if !cred.Authenticated() {
			return errors.New("not logged in; run `thoth login` first")
		}

		records, err := a.files.List(cmd.Context())
		if err != nil {
			return describeAuthError(err)
		}
		fmt.Print(homeSummary(cred.DisplayName, records))
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage uploaded files",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your uploaded files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		records, err := a.files.List(cmd.Context())
		if err != nil {
			return describeAuthError(err)
		}
		printFileList(records)
		return nil
	},
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Upload a file and show the refreshed list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		records, err := a.files.Upload(cmd.Context(), filepath.Base(args[0]), f)
		if err != nil {
			// The upload landed but the list refresh failed: show the
			// last-known list with a warning instead of a hard error.
			if errors.Is(err, files.ErrRefreshFailed) {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				printFileList(records)
				return nil
			}
			return describeAuthError(err)
		}

		fmt.Printf("Uploaded %s.\n", filepath.Base(args[0]))
		printFileList(records)
		return nil
	},
}

// runInteractiveChat wires the chat stack and hands the terminal to the TUI.
func runInteractiveChat() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	orch := chat.New(a.gate, a.client, chat.ModelParams{
		Model:       a.cfg.Chat.Model,
		MaxTokens:   a.cfg.Chat.MaxTokens,
		Temperature: a.cfg.Chat.Temperature,
	})

	deps := chatui.Deps{
		Orchestrator: orch,
		Files:        a.files,
	}

	history, err := store.NewHistoryStore(filepath.Join(a.stateDir, "chat_history.db"))
	if err != nil {
		logging.StoreWarn("history store unavailable: %v", err)
	} else {
		orch.SetRecorder(history)
		deps.History = history
		defer history.Close()
	}

	cred := a.store.Get()
	orch.Greet(cred.DisplayName)
	deps.DisplayName = cred.DisplayName

	loop := heartbeat.NewLoop(a.client, a.cfg.GetHeartbeatInterval())
	if a.cfg.Heartbeat.Enabled {
		loop.Start(cred.Token)
	}
	defer loop.Stop()

	model := chatui.NewModel(deps)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func promptLine(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// homeSummary builds the dashboard text: greeting, upload count, and the
// next actions available from here.
func homeSummary(name string, records []api.FileRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello, %s! How can I help you?\n\n", name)
	switch len(records) {
	case 0:
		sb.WriteString("No files uploaded yet.\n")
	case 1:
		sb.WriteString("You have 1 uploaded file:\n")
	default:
		fmt.Fprintf(&sb, "You have %d uploaded files:\n", len(records))
	}
	for _, rec := range records {
		fmt.Fprintf(&sb, "  %s\n", rec.Filename)
	}
	sb.WriteString("\nRun `thoth` to chat, or `thoth logout` to sign out.\n")
	return sb.String()
}

func printFileList(records []api.FileRecord) {
	if len(records) == 0 {
		fmt.Println("No files uploaded yet.")
		return
	}
	for _, rec := range records {
		fmt.Printf("  %-36s  %s\n", rec.ID, rec.Filename)
	}
}

// describeAuthError turns the auth sentinels into friendlier CLI messages.
func describeAuthError(err error) error {
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		return errors.New("not logged in; run `thoth login` first")
	case errors.Is(err, api.ErrSessionExpired):
		return errors.New("session expired; run `thoth login` again")
	default:
		return err
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "override backend base URL")

	filesCmd.AddCommand(filesListCmd, filesUploadCmd)
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, homeCmd, filesCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
