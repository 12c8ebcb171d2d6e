// Package main provides the entry point for the Parley CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/parley-sh/parley/internal/chat"
	"github.com/parley-sh/parley/ui"
	"github.com/parley-sh/parley/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	style      string
	width      uint
	mouse      bool
	provider   string
	modelName  string
	voice      string

	rootCmd = &cobra.Command{
		Use:   "parley [PROMPT]",
		Short: "Chat with a language model, with pizzazz!",
		Long: paragraph(
			fmt.Sprintf("\nChat with a language model on the CLI, %s. Run without arguments for the interactive TUI, or pass a prompt for a one-shot answer.", keyword("out loud if you like")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ArbitraryArgs,
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	// grab config values from viper if they're not set on the command line
	if !cmd.Flags().Changed("style") {
		style = viper.GetString("style")
	}
	if !cmd.Flags().Changed("width") {
		width = viper.GetUint("width")
	}
	if !cmd.Flags().Changed("provider") {
		provider = viper.GetString("provider")
	}
	if !cmd.Flags().Changed("model") {
		modelName = viper.GetString("model")
	}
	if !cmd.Flags().Changed("voice") {
		voice = viper.GetString("speech.voice")
	}
	mouse = viper.GetBool("mouse")

	if provider != "openrouter" && provider != "ollama" {
		return fmt.Errorf("unknown provider %q: use openrouter or ollama", provider)
	}

	if err := validateStyle(style); err != nil {
		return err
	}

	if err := validateSpeechConfig(); err != nil {
		return err
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") {
		if isTerminal(os.Stdout) {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}
			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func validateStyle(style string) error {
	if style == styles.AutoStyle {
		return nil
	}
	if _, ok := styles.DefaultStyles[style]; ok {
		return nil
	}
	if _, err := os.Stat(utils.ExpandPath(style)); err != nil {
		return fmt.Errorf("style %q is not a default style or a readable JSON file", style)
	}
	return nil
}

// validateSpeechConfig sanity-checks speech configuration values.
func validateSpeechConfig() error {
	rate := viper.GetFloat64("speech.rate")
	if rate < 0.5 || rate > 4.0 {
		return fmt.Errorf("speech rate must be between 0.5 and 4.0, got %.2f", rate)
	}

	if dir := viper.GetString("speech.cache_dir"); dir != "" {
		dir = utils.ExpandPath(dir)
		parent := filepath.Dir(dir)
		if _, err := os.Stat(parent); os.IsNotExist(err) {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return fmt.Errorf("speech cache directory parent %q cannot be created: %w", parent, err)
			}
		}
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func execute(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return executeAsk(strings.Join(args, " "), os.Stdout)
	}
	return runTUI()
}

// executeAsk runs a single prompt against the configured provider and
// prints the rendered reply, sources included. This is the non-TUI path
// for pipes and scripts.
func executeAsk(prompt string, w *os.File) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	session, err := ui.NewSession(cfg, nil)
	if err != nil {
		return err
	}

	msg := chat.NewMessage(chat.RoleAssistant, "")
	for frag := range chat.Consume(context.Background(), session, prompt) {
		chat.Apply(&msg, frag)
	}

	// Plain text when piped or colors are off.
	if !isTerminal(w) || termenv.EnvNoColor() {
		fmt.Fprintln(w, msg.Text)
		printSources(w, msg.Citations)
		return nil
	}

	r, err := glamour.NewTermRenderer(
		utils.GlamourStyle(style),
		glamour.WithWordWrap(int(width)), //nolint:gosec
		glamour.WithEmoji(),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(msg.Text)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	fmt.Fprint(w, out)
	printSources(w, msg.Citations)
	return nil
}

func printSources(w *os.File, citations []chat.Citation) {
	if len(citations) == 0 {
		return
	}
	fmt.Fprintln(w, "Sources:")
	for i, c := range citations {
		if c.Title != "" {
			fmt.Fprintf(w, "  %d. %s — %s\n", i+1, c.Title, c.URI)
			continue
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, c.URI)
	}
}

// buildConfig assembles the UI configuration from the environment, the
// config file, and command line flags, in increasing precedence.
func buildConfig() (ui.Config, error) {
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return ui.Config{}, fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the flag/config value if unset or invalid
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.Provider = provider
	cfg.Model = modelName
	cfg.SystemPrompt = viper.GetString("system_prompt")
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse

	// Speech configuration
	cfg.SpeechEnabled = voice != ""
	cfg.SpeechVoice = voice
	cfg.SpeechModel = viper.GetString("speech.model")
	cfg.SpeechRate = viper.GetFloat64("speech.rate")
	cfg.SpeechCacheDir = utils.ExpandPath(viper.GetString("speech.cache_dir"))

	if cfg.APIKey == "" && cfg.Provider == "openrouter" {
		return ui.Config{}, fmt.Errorf("OPENROUTER_API_KEY is not set")
	}
	return cfg, nil
}

func runTUI() error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	// Run Bubble Tea program
	m, err := ui.NewProgram(cfg).Run()
	if err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	// A startup failure quits the program with a nil error; the alt screen
	// has already wiped the error frame, so report it here instead.
	if m, ok := m.(interface{ Err() error }); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to auto-detect)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")
	rootCmd.Flags().StringVarP(&provider, "provider", "p", "openrouter", "chat provider (openrouter or ollama)")
	rootCmd.Flags().StringVar(&modelName, "model", "", "model identifier to chat with")
	rootCmd.Flags().StringVar(&voice, "voice", "", "enable speech with the given voice (e.g. alloy)")

	// Config bindings
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("provider", rootCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("model", rootCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("speech.voice", rootCmd.Flags().Lookup("voice"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("provider", "openrouter")
	viper.SetDefault("model", "openrouter/auto")
	viper.SetDefault("system_prompt", "You are a helpful assistant. Keep answers concise and cite sources when you use them.")

	// Speech defaults
	viper.SetDefault("speech.voice", "")
	viper.SetDefault("speech.model", "gpt-4o-mini-tts")
	viper.SetDefault("speech.rate", 1.6)
	viper.SetDefault("speech.cache_dir", "")

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "parley")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find the configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "parley")}, dirs...)
	}

	if c := os.Getenv("PARLEY_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("parley")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("parley")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "parley.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
