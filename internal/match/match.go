// Package match scores directory names against decoded vehicle attributes using bigram
// (Sørensen–Dice) similarity.
package match

import (
	"strings"
	"unicode"

	strutilmetrics "github.com/adrg/strutil/metrics"
	"go.uber.org/zap"

	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

// DefaultLowConfidenceThreshold flags matches that are probably wrong. A bare model name against
// "Model V6-3.6L" style folders legitimately scores around this value, so it only warns.
const DefaultLowConfidenceThreshold = 0.2

// Matcher implements resolver.Matcher.
type Matcher struct {
	threshold float64
	logger    *zap.Logger
}

var _ resolver.Matcher = (*Matcher)(nil)

// New builds a Matcher. Scores below threshold are flagged and logged but still returned.
func New(threshold float64, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{threshold: threshold, logger: logger}
}

// Threshold returns the low-confidence cutoff.
func (m *Matcher) Threshold() float64 { return m.threshold }

// FindBestMatch returns the highest scoring candidate, the first one on ties, or nil when
// candidates is empty.
func (m *Matcher) FindBestMatch(target string, candidates []string) *resolver.Match {
	if len(candidates) == 0 {
		return nil
	}
	best := &resolver.Match{Index: 0, Candidate: candidates[0], Score: Similarity(target, candidates[0])}
	for i := 1; i < len(candidates); i++ {
		score := Similarity(target, candidates[i])
		if score > best.Score {
			best.Index = i
			best.Candidate = candidates[i]
			best.Score = score
		}
	}
	best.LowConfidence = best.Score < m.threshold

	m.logger.Debug("best match",
		zap.String("target", target),
		zap.String("candidate", best.Candidate),
		zap.Float64("score", best.Score),
	)
	if best.LowConfidence {
		m.logger.Warn("low match rating",
			zap.String("target", target),
			zap.String("candidate", best.Candidate),
			zap.Float64("score", best.Score),
			zap.Float64("threshold", m.threshold),
		)
	}
	return best
}

// dice is read-only after init, so concurrent Compare calls are safe.
var dice = &strutilmetrics.SorensenDice{CaseSensitive: false, NgramSize: 2}

// Similarity returns 2·|shared bigrams| / (|bigrams(a)| + |bigrams(b)|) in [0,1]. Comparison is
// case-insensitive and ignores whitespace; bigrams are counted as a multiset.
func Similarity(a, b string) float64 {
	first := normalize(a)
	second := normalize(b)
	if first == second {
		return 1
	}
	// Single runes have no bigrams.
	if len([]rune(first)) < 2 || len([]rune(second)) < 2 {
		return 0
	}
	return dice.Compare(first, second)
}

func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
