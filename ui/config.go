package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Chat backend
	Provider     string // "openrouter" or "ollama"
	Model        string
	APIKey       string `env:"OPENROUTER_API_KEY"`
	OllamaHost   string `env:"OLLAMA_HOST" envDefault:"http://127.0.0.1:11434"`
	SystemPrompt string

	// Speech
	SpeechEnabled  bool
	SpeechAPIKey   string `env:"OPENAI_API_KEY"`
	SpeechModel    string
	SpeechVoice    string
	SpeechRate     float64
	SpeechCacheDir string

	// Rendering
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// For debugging the UI
	GlamourEnabled bool `env:"PARLEY_ENABLE_GLAMOUR" envDefault:"true"`
}
