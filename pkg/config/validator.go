package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.rate_limit",
			Message: "rate_limit cannot be negative",
		})
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.Dir == "" {
			errors = append(errors, ValidationError{
				Field:   "storage.dir",
				Message: "storage dir is required for the file backend",
			})
		}
	case "postgres":
		if c.Storage.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "storage.url",
				Message: "connection URL is required for the postgres backend",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("unknown backend %q (file or postgres)", c.Storage.Backend),
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Segmenter.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "segmenter.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Server.TokenTTLMins < 1 {
		errors = append(errors, ValidationError{
			Field:   "server.token_ttl_minutes",
			Message: "token_ttl_minutes must be positive",
		})
	}

	return errors
}
