package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Category budgets, JSON object of category name -> ceiling in major
	// units. Loaded once at startup; read-only afterwards.
	CategoryBudgetsJSON string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Listing
	PageSize int

	// Export worker
	GoogleSpreadsheetID string
}

func Load() *Config {
	return &Config{
		SQLiteDBPath:        getEnv("SQLITE_DB_PATH", "./data/budgetbook.db"),
		CategoryBudgetsJSON: getEnv("CATEGORY_BUDGETS", "{}"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetbook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		PageSize: getEnvInt("PAGE_SIZE", 20),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
	}
}

// CategoryBudgets parses the configured budget map.
func (c *Config) CategoryBudgets() (map[string]float64, error) {
	budgets := map[string]float64{}
	if c.CategoryBudgetsJSON == "" {
		return budgets, nil
	}
	if err := json.Unmarshal([]byte(c.CategoryBudgetsJSON), &budgets); err != nil {
		return nil, fmt.Errorf("parse CATEGORY_BUDGETS: %w", err)
	}
	return budgets, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	budgets, err := c.CategoryBudgets()
	if err != nil {
		errors = append(errors, fmt.Sprintf("invalid CATEGORY_BUDGETS '%s': must be a JSON object of category -> budget", c.CategoryBudgetsJSON))
	} else {
		for category, ceiling := range budgets {
			if ceiling <= 0 {
				errors = append(errors, fmt.Sprintf("invalid budget for category '%s': must be greater than zero", category))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PageSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at least 1", c.PageSize))
	} else if c.PageSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at most 500", c.PageSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
