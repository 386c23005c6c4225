package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

// ConfigCheckResult holds the result of environment validation
type ConfigCheckResult struct {
	Missing  []string          // Required variables that are missing
	Present  map[string]string // Variables that are set (masked values)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredConfig validates that required environment variables are set
// for deployments configured entirely through the environment.
func CheckRequiredConfig() *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	requiredVars := []string{
		"REPLYPILOT_SERVER_WEBHOOK_SECRET",
		"REPLYPILOT_SERVER_JWT_SECRET",
		"REPLYPILOT_CLASSIFIER_API_KEY",
	}

	for _, v := range requiredVars {
		val := os.Getenv(v)
		if val == "" {
			result.Missing = append(result.Missing, v)
		} else {
			result.Present[v] = maskSecret(val)
		}
	}

	optionalVars := []string{
		"DATABASE_URL",
		"REPLYPILOT_MAILER_API_KEY",
		"REPLYPILOT_ESIGN_API_KEY",
	}

	for _, v := range optionalVars {
		val := os.Getenv(v)
		if val != "" {
			result.Present[v] = maskSecret(val)
		}
	}

	if os.Getenv("DATABASE_URL") == "" {
		result.Warnings = append(result.Warnings,
			"DATABASE_URL not set: alerts are synchronous and the audit trail is not persisted")
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(result *ConfigCheckResult) {
	fmt.Println("=== Configuration Check ===")
	fmt.Println("")

	if len(result.Missing) > 0 {
		fmt.Println("❌ Missing required variables:")
		for _, v := range result.Missing {
			fmt.Printf("   - %s\n", v)
		}
		fmt.Println("")
	}

	if len(result.Present) > 0 {
		fmt.Println("✓ Configured variables:")
		for k, v := range result.Present {
			fmt.Printf("   - %s = %s\n", k, v)
		}
		fmt.Println("")
	}

	for _, w := range result.Warnings {
		fmt.Printf("⚠ Warning: %s\n", w)
	}

	if len(result.Missing) == 0 {
		fmt.Println("✓ All required configuration is present")
	}

	fmt.Println("============================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env var %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}

// EnvCommand returns the env check command
func EnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Check environment configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from `FILE` before checking",
			},
		},
		Action: func(c *cli.Context) error {
			if path := c.String("env-file"); path != "" {
				if err := LoadEnvFile(path); err != nil {
					return fmt.Errorf("failed to load env file: %w", err)
				}
			}
			result := CheckRequiredConfig()
			PrintConfigCheck(result)
			if len(result.Missing) > 0 {
				return fmt.Errorf("%d required variable(s) missing", len(result.Missing))
			}
			return nil
		},
	}
}
