package llmprovider

import (
	"time"

	"mse-engine/internal/config"
	"mse-engine/internal/engine"
)

// FromConfig builds the first configured provider, falling back to None
// when no providers are configured or none are of a recognized kind.
func FromConfig(providers []config.LLMProviderConfig) engine.LLMProvider {
	for _, p := range providers {
		timeout := time.Duration(p.TimeoutSecs) * time.Second
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		switch p.Kind {
		case "anthropic":
			return NewAnthropic(p.APIKey, p.Model, timeout)
		case "openai":
			model := p.Model
			if model == "" && p.URL != "" {
				if discovered, err := NewDiscovery(p.URL).FirstModelName(); err == nil {
					model = discovered
				}
			}
			return NewOpenAICompatible(p.URL, p.APIKey, model, timeout)
		}
	}
	return None{}
}
