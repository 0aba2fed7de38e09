package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Auth   AuthConfig   `mapstructure:"auth" validate:"required"`
	OCR    OCRConfig    `mapstructure:"ocr" validate:"required"`
	Task   TaskConfig   `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// AuthConfig contains the shared-secret gate settings. Every request must
// present the secret in the X-API-Secret header.
type AuthConfig struct {
	APISecret string `mapstructure:"api_secret" validate:"required"`
}

// OCRConfig contains the Gemini backend settings. GeminiAPIKey is the
// server-side fallback credential; callers may supply their own per request
// via the X-Gemini-Key header.
type OCRConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	Prompt       string `mapstructure:"prompt" validate:"required"`
}

// TaskConfig contains the task coordinator settings: how long finished
// entries are cached, how many are kept, and how long a single backend call
// may run. MaxEntries of zero disables the capacity bound.
type TaskConfig struct {
	TTLSeconds         int  `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	MaxEntries         int  `mapstructure:"max_entries" validate:"gte=0"`
	CallTimeoutSeconds int  `mapstructure:"call_timeout_seconds" validate:"required,gt=0"`
	ScopeByCredential  bool `mapstructure:"scope_by_credential"`
}
