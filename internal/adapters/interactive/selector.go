package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectQueueItem lets the user pick one queued transaction
func (s *SelectorAdapter) SelectQueueItem(ctx context.Context, items []models.QueueItem, prompt string) (*models.QueueItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no transactions provided for selection")
	}

	// If only one match, return it directly
	if len(items) == 1 {
		return &items[0], nil
	}

	if s.config.NonInteractive {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}

	options := formatQueueOptions(items)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return &items[index], nil
}

// formatQueueOptions renders "#nonce summary (n/m) hash"
func formatQueueOptions(items []models.QueueItem) []string {
	options := make([]string, len(items))
	for i, item := range items {
		nonce := color.New(color.FgWhite, color.Bold).Sprintf("#%d", item.Execution.Nonce)
		hash := color.New(color.FgBlue).Sprint(item.SafeTxHash.Hex()[:10])

		confirmations := fmt.Sprintf("%d/%d", item.Execution.ConfirmationsSubmitted, item.Execution.ConfirmationsRequired)
		if item.Execution.IsFullyConfirmed() {
			confirmations = color.New(color.FgGreen).Sprint(confirmations)
		} else {
			confirmations = color.New(color.FgYellow).Sprint(confirmations)
		}

		options[i] = fmt.Sprintf("%s %s (%s) %s", nonce, item.TxInfo.Summary(), confirmations, hash)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

// Ensure the adapter implements the interface
var _ usecase.QueueSelector = (*SelectorAdapter)(nil)
