package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const probeTimeout = 5 * time.Second

// defaultBaseURL returns the conventional local endpoint for a provider.
func defaultBaseURL(provider string) string {
	switch provider {
	case "ollama":
		return "http://localhost:11434"
	case "openai":
		return "http://localhost:8080/v1"
	default:
		return ""
	}
}

// newLLMClient creates an LLM client for the configured provider. The
// openai provider covers every OpenAI-compatible server (llama.cpp, vLLM,
// LM Studio); local ones usually ignore the token, but the client library
// requires one, so a placeholder is supplied when none is configured.
func newLLMClient(config *Config) (llms.Model, error) {
	switch config.LLM.Provider {
	case "fake":
		return fake.NewFakeLLM([]string{"This is a canned response."}), nil
	case "ollama":
		opts := []ollama.Option{
			ollama.WithModel(config.LLM.Model),
		}
		if config.LLM.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(config.LLM.BaseURL))
		}
		return ollama.New(opts...)
	case "openai":
		token := config.LLM.APIKey
		if token == "" {
			token = "not-needed"
		}
		opts := []openai.Option{
			openai.WithModel(config.LLM.Model),
			openai.WithToken(token),
		}
		if config.LLM.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.LLM.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.LLM.Provider)
	}
}

// probeEndpoint checks that the configured endpoint answers HTTP at all.
// It does not validate the model; a reachable server is good enough to
// enter the chat loop.
func probeEndpoint(ctx context.Context, config *Config) error {
	if config.LLM.Provider == "fake" {
		return nil
	}

	base := config.LLM.BaseURL
	if base == "" {
		base = defaultBaseURL(config.LLM.Provider)
	}
	if base == "" {
		return fmt.Errorf("no endpoint configured for provider %s", config.LLM.Provider)
	}
	probeURL := strings.TrimSuffix(base, "/")
	if config.LLM.Provider == "openai" {
		probeURL += "/models"
	}
	if _, err := url.Parse(probeURL); err != nil {
		return fmt.Errorf("invalid endpoint URL %q: %w", base, err)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}
	if config.LLM.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+config.LLM.APIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("endpoint %s is unreachable: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("endpoint %s answered with status %s", base, resp.Status)
	}
	return nil
}
