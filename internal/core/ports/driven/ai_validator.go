package driven

import "github.com/custodia-labs/promptlens/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateAI validates an AI configuration by pinging the provider.
	// Returns nil if reformatting is disabled or the provider is reachable.
	ValidateAI(config *domain.AISettings) error
}
