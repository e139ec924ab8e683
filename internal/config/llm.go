package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/yuchingtsai/bookkeep/internal/llm"
)

// LoadLLMConfig loads LLM provider configuration. Precedence:
// 1. Viper configuration (config file or BOOKKEEP_ env vars)
// 2. Provider-specific environment variables (GEMINI_API_KEY, OPENAI_API_KEY)
// 3. Defaults
func LoadLLMConfig() llm.Config {
	config := llm.Config{
		Provider:    viper.GetString("llm.provider"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		Timeout:     viper.GetDuration("llm.timeout"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		BatchWindow: viper.GetInt("llm.batch_window"),
		BatchDelay:  viper.GetDuration("llm.batch_delay"),
	}

	if config.APIKey == "" {
		switch config.Provider {
		case "gemini":
			config.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			config.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 30
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 15 * time.Minute
	}

	return config
}
