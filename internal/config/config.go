package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration.
type Config struct {
	Server struct {
		Port          int    `koanf:"port"`
		WebhookSecret string `koanf:"webhook_secret"`
		JWTSecret     string `koanf:"jwt_secret"`
		OperatorEmail string `koanf:"operator_email"`
		// bcrypt hash of the operator password; generated with `replypilot config hash-password`.
		OperatorPasswordHash string `koanf:"operator_password_hash"`
	} `koanf:"server"`

	Classifier struct {
		Provider    string  `koanf:"provider"`
		APIKey      string  `koanf:"api_key"`
		Model       string  `koanf:"model"`
		BaseURL     string  `koanf:"base_url"`
		Temperature float64 `koanf:"temperature"`
		MaxTokens   int     `koanf:"max_tokens"`
		TimeoutSec  int     `koanf:"timeout_sec"`
	} `koanf:"classifier"`

	Mailer struct {
		BaseURL       string `koanf:"base_url"`
		APIKey        string `koanf:"api_key"`
		FromAddress   string `koanf:"from_address"`
		RatePerMinute int    `koanf:"rate_per_minute"`
	} `koanf:"mailer"`

	Esign struct {
		BaseURL    string `koanf:"base_url"`
		APIKey     string `koanf:"api_key"`
		TemplateID string `koanf:"template_id"`
	} `koanf:"esign"`

	Alerts struct {
		WebhookURL string `koanf:"webhook_url"`
	} `koanf:"alerts"`

	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`

	Policy struct {
		DefaultThreshold   float64 `koanf:"default_threshold"`
		AgreementThreshold float64 `koanf:"agreement_threshold"`
		MaxAutoReplies     int     `koanf:"max_auto_replies"`
		// Provider quirk: deliveries where message id equals thread id are
		// processed despite looking like duplicates. Flagged so the
		// behavior can be revisited without touching the engine.
		AllowThreadIDCollision bool `koanf:"allow_thread_id_collision"`
		// Outbound messages sent before this date predate the automation
		// marker and can never be reliably distinguished from manual
		// replies.
		MarkerRolloutDate string `koanf:"marker_rollout_date"`
	} `koanf:"policy"`
}

// LoadConfig loads the configuration from a file.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":                      8787,
		"classifier.provider":              "openai",
		"classifier.model":                 "gpt-4o-mini",
		"classifier.temperature":           0.1,
		"classifier.timeout_sec":           30,
		"mailer.rate_per_minute":           30,
		"policy.default_threshold":         0.75,
		"policy.agreement_threshold":       0.60,
		"policy.max_auto_replies":          2,
		"policy.allow_thread_id_collision": true,
		"policy.marker_rollout_date":       "2024-01-01T00:00:00Z",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./replypilot.toml", "$HOME/.replypilot.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix REPLYPILOT_
	k.Load(env.Provider("REPLYPILOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "REPLYPILOT_")), "_", ".", 1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# ReplyPilot Configuration

[server]
port = 8787
webhook_secret = "shared-secret-from-email-provider"
jwt_secret = "change-me"
operator_email = "ops@example.com"
operator_password_hash = ""

[classifier]
provider = "openai"
api_key = "your-api-key"
model = "gpt-4o-mini"
temperature = 0.1

[mailer]
base_url = "https://api.mailprovider.example"
api_key = "your-mailer-key"
from_address = "outreach@example.com"
rate_per_minute = 30

[esign]
base_url = "https://api.esign.example"
api_key = "your-esign-key"
template_id = "agreement-v2"

[alerts]
webhook_url = ""

[database]
# Optional. Enables the decision audit trail and queued alert delivery.
url = ""

[policy]
default_threshold = 0.75
agreement_threshold = 0.60
max_auto_replies = 2
allow_thread_id_collision = true
marker_rollout_date = "2024-01-01T00:00:00Z"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration.
func Validate(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}
	if config.Classifier.Provider == "" {
		return fmt.Errorf("classifier provider is required")
	}
	if config.Classifier.Provider != "ollama" && config.Classifier.APIKey == "" {
		return fmt.Errorf("classifier api_key is required for provider %s", config.Classifier.Provider)
	}
	if config.Mailer.FromAddress == "" {
		return fmt.Errorf("mailer from_address is required")
	}
	if config.Policy.AgreementThreshold > config.Policy.DefaultThreshold {
		return fmt.Errorf("agreement_threshold must not exceed default_threshold")
	}
	if config.Policy.MarkerRolloutDate != "" {
		if _, err := time.Parse(time.RFC3339, config.Policy.MarkerRolloutDate); err != nil {
			return fmt.Errorf("marker_rollout_date must be RFC3339: %w", err)
		}
	}
	return nil
}

// MarkerRolloutTime parses the marker rollout date, zero time when unset.
func (c *Config) MarkerRolloutTime() time.Time {
	t, err := time.Parse(time.RFC3339, c.Policy.MarkerRolloutDate)
	if err != nil {
		return time.Time{}
	}
	return t
}
