package indicators

import (
	"fmt"
	"strings"

	"PivotScreener/internal/domain/models"
)

// Categorize maps a complete signal triple onto its category. Undefined
// horizons are an error, never coerced to bearish.
func Categorize(s models.SentimentSignals) (models.Category, error) {
	if !s.Complete() {
		var missing []string
		if !s.ShortTerm.Defined() {
			missing = append(missing, "short")
		}
		if !s.MidTerm.Defined() {
			missing = append(missing, "mid")
		}
		if !s.LongTerm.Defined() {
			missing = append(missing, "long")
		}
		return models.CategoryUndetermined, fmt.Errorf("categorize (%s term undefined): %w", strings.Join(missing, ", "), models.ErrInsufficientData)
	}

	short := s.ShortTerm == models.SignalBullish
	mid := s.MidTerm == models.SignalBullish
	long := s.LongTerm == models.SignalBullish
	switch {
	case !short && !mid && !long:
		return models.CategoryCompletelyBearish, nil
	case short && mid && long:
		return models.CategoryCompletelyBullish, nil
	default:
		return models.CategoryGraduallyBullish, nil
	}
}
