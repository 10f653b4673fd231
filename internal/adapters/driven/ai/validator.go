package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by building the service they
// describe and pinging it. Unconfigured settings pass: there is nothing
// to reach yet.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that waits pingTimeout per check.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// ValidateEmbedding pings the embedding provider.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	return v.ping(svc, domain.ErrEmbeddingUnavailable)
}

// ValidateLLM pings the completion provider.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateCompletionService(settings)
	if err != nil || svc == nil {
		return err
	}
	return v.ping(svc, domain.ErrLLMUnavailable)
}

func (v *ConfigValidator) ping(svc pinger, unavailable error) error {
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", unavailable, err)
	}
	return nil
}
