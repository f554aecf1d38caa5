package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// ConfirmerAdapter asks yes/no questions on the terminal
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
}

// NewConfirmerAdapter creates a new confirmer
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{config: cfg}
}

// Confirm returns true without asking in non-interactive mode
func (c *ConfirmerAdapter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.config.NonInteractive {
		return true, nil
	}

	p := promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return true, nil
}

var _ usecase.Confirmer = (*ConfirmerAdapter)(nil)
