// Package narrative produces a plain-language explanation of a valuation
// result with a language model.
package narrative

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"ertragswert/server/internal/models"
)

// ErrNotConfigured is returned when no model credentials are available
var ErrNotConfigured = errors.New("narrative analysis is not configured")

// Analyzer explains valuation results
type Analyzer struct {
	completer Completer
	logger    *logrus.Logger
}

// NewAnalyzer creates an analyzer. A nil completer yields ErrNotConfigured on every call.
func NewAnalyzer(completer Completer, logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Analyzer{completer: completer, logger: logger}
}

// Enabled reports whether a completer is wired
func (a *Analyzer) Enabled() bool {
	return a != nil && a.completer != nil
}

// Analyze renders the prompt for result and parses the model's reply
func (a *Analyzer) Analyze(ctx context.Context, result *models.ValuationResult) (*models.AnalysisResponse, error) {
	if !a.Enabled() {
		return nil, ErrNotConfigured
	}
	if result == nil {
		return nil, errors.New("no valuation result to analyse")
	}

	prompt, err := RenderPrompt(BuildSummary(result))
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"valuation_id":  result.ID,
		"property_type": result.Input.PropertyType,
	}).Info("Requesting valuation analysis")

	reply, err := a.completer.Complete(ctx, systemMessage, prompt)
	if err != nil {
		a.logger.WithError(err).Error("Analysis request failed")
		return nil, fmt.Errorf("failed to generate analysis: %w", err)
	}

	resp := ParseAnalysis(reply)
	a.logger.WithField("key_points", len(resp.KeyPoints)).Debug("Analysis parsed")
	return resp, nil
}
