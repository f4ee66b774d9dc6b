package main

import (
	"testing"

	"github.com/aiva-platform/chat/internal/config"
	"github.com/aiva-platform/chat/pkg/logger"
)

func TestNewLLMClientHonorsDefaultProvider(t *testing.T) {
	tests := []struct {
		name         string
		cfg          config.Config
		wantProvider string
	}{
		{
			name:         "default provider wins when both keys set",
			cfg:          config.Config{DefaultLLM: "openai", AnthropicAPIKey: "sk-ant", OpenAIAPIKey: "sk-oai"},
			wantProvider: "openai",
		},
		{
			name:         "falls back when preferred provider has no key",
			cfg:          config.Config{DefaultLLM: "openai", AnthropicAPIKey: "sk-ant"},
			wantProvider: "anthropic",
		},
		{
			name:         "unknown provider name falls back to configured key",
			cfg:          config.Config{DefaultLLM: "bedrock", OpenAIAPIKey: "sk-oai"},
			wantProvider: "openai",
		},
		{
			name:         "no keys yields nil client",
			cfg:          config.Config{DefaultLLM: "anthropic"},
			wantProvider: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newLLMClient(&tt.cfg, logger.NewNop())
			if tt.wantProvider == "" {
				if c != nil {
					t.Fatalf("expected nil client, got provider %q", c.Name())
				}
				return
			}
			if c == nil {
				t.Fatalf("expected provider %q, got nil client", tt.wantProvider)
			}
			if c.Name() != tt.wantProvider {
				t.Errorf("provider = %q, want %q", c.Name(), tt.wantProvider)
			}
		})
	}
}
