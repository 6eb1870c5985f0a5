// internal/pipeline/scorer/scorer.go
package scorer

import (
	"math"
	"strings"

	"hybrid-query-engine/internal/models"
)

// Component weights and caps. Each evidence class contributes independently
// and is capped before summing; the total is clamped to [0, 1].
const (
	intentWeight = 0.4

	keywordWeight = 0.1
	keywordCap    = 0.3

	operationWeight = 0.15
	operationCap    = 0.2

	entityLabelWeight = 0.05
	entityHintWeight  = 0.1
	entityCap         = 0.1
)

// Score computes the confidence that a backend described by p can answer the
// given intent. Pure and deterministic: same input, same score.
func Score(intent *models.NormalizedIntent, p *Profile) float64 {
	query := strings.ToLower(intent.OriginalQuery)
	score := 0.0

	// Base affinity from the intent class. Unknown intents contribute nothing.
	if affinity, ok := intentAffinity[intent.Intent]; ok {
		score += affinity[p.Source] * intentWeight
	}

	keywordScore := 0.0
	for _, keyword := range p.Keywords {
		if strings.Contains(query, keyword) {
			keywordScore += keywordWeight
		}
	}
	score += math.Min(keywordScore, keywordCap)

	operationScore := 0.0
	for _, phrase := range p.OperationPhrases {
		if strings.Contains(query, phrase) {
			operationScore += operationWeight
		}
	}
	score += math.Min(operationScore, operationCap)

	if p.AggregationBonus > 0 && len(intent.Aggregations) > 0 {
		score += p.AggregationBonus
	}
	if p.FilterBonus > 0 && len(intent.Filters) > 0 {
		score += p.FilterBonus
	}

	entityScore := 0.0
	for _, entity := range intent.Entities {
		if _, ok := p.EntityLabels[entity.Label]; ok {
			entityScore += entityLabelWeight
			continue
		}
		text := strings.ToLower(entity.Text)
		for _, hint := range p.EntityTextHints {
			if strings.Contains(text, hint) {
				entityScore += entityHintWeight
				break
			}
		}
	}
	score += math.Min(entityScore, entityCap)

	// Phrase patterns award the bonus once, first match wins.
	for _, pattern := range p.PhrasePatterns {
		if pattern.MatchString(query) {
			score += p.PatternBonus
			break
		}
	}

	return models.Clamp01(score)
}
