package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// defaultPrompt is the recognition instruction sent to the backend alongside
// every image. It asks for the 5 foreground characters only, preserving case.
const defaultPrompt = "Return only the 5 alphanumeric characters shown in the image. " +
	"The background may contain noise or strike-through lines; focus on the foreground " +
	"characters and preserve their exact case. Reply with the 5-character string alone " +
	"(for example: aB3dE)."

// Load reads configuration from environment variables (optionally seeded from
// a .env file in the working directory) and returns a validated Config.
// Existing environment variables always take precedence over .env values.
func Load() (*Config, error) {
	// Non-overriding by design: godotenv.Load never replaces variables that
	// are already set in the process environment.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for all optional settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("ocr.model_name", "gemini-2.5-flash")
	v.SetDefault("ocr.prompt", defaultPrompt)
	v.SetDefault("task.ttl_seconds", 600)
	v.SetDefault("task.max_entries", 200)
	v.SetDefault("task.call_timeout_seconds", 30)
	v.SetDefault("task.scope_by_credential", true)
}

// bindEnvVars maps flat environment variable names onto the nested config
// keys. The names match what deployments of this service already use
// (GEMINI_API_KEY, API_SECRET, PORT, ...).
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"server.port":               "PORT",
		"server.log_level":          "LOG_LEVEL",
		"auth.api_secret":           "API_SECRET",
		"ocr.gemini_api_key":        "GEMINI_API_KEY",
		"ocr.model_name":            "GEMINI_MODEL",
		"ocr.prompt":                "OCR_PROMPT",
		"task.ttl_seconds":          "TASK_TTL_SECONDS",
		"task.max_entries":          "TASK_MAX_ENTRIES",
		"task.call_timeout_seconds": "TASK_CALL_TIMEOUT_SECONDS",
		"task.scope_by_credential":  "TASK_SCOPE_BY_CREDENTIAL",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s to %s: %w", key, env, err)
		}
	}

	return nil
}
