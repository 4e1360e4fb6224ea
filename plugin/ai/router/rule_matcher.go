package router

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// RuleMatcher implements lexical intent matching against declared trigger vocabularies.
// Target: 0ms latency, no external calls.
type RuleMatcher struct {
	intents  []Intent
	triggers map[Intent][]trigger
}

type trigger struct {
	phrase  string
	pattern *regexp.Regexp // nil for substring triggers
}

// NewRuleMatcher compiles the trigger vocabulary of every rule.
// ASCII triggers match at a word boundary, case-insensitive.
// Triggers containing non-ASCII letters (CJK, kana) match by substring.
func NewRuleMatcher(rules []Rule) *RuleMatcher {
	m := &RuleMatcher{
		triggers: make(map[Intent][]trigger, len(rules)),
	}
	for _, rule := range rules {
		if _, seen := m.triggers[rule.Intent]; !seen {
			m.intents = append(m.intents, rule.Intent)
		}
		for _, phrase := range rule.Triggers {
			phrase = strings.ToLower(strings.TrimSpace(phrase))
			if phrase == "" {
				continue
			}
			t := trigger{phrase: phrase}
			if isASCII(phrase) {
				t.pattern = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase))
			}
			m.triggers[rule.Intent] = append(m.triggers[rule.Intent], t)
		}
	}
	return m
}

// Name implements Strategy.
func (m *RuleMatcher) Name() string {
	return "rule"
}

// Classify implements Strategy.
func (m *RuleMatcher) Classify(_ context.Context, msg Message) (Classification, bool, error) {
	intent, confidence, matched := m.Match(msg.Text)
	if !matched {
		return Classification{}, false, nil
	}
	return Classification{Intent: intent, Confidence: confidence, Method: MethodRule}, true, nil
}

// Match scores every intent by the number of triggers found in input.
// Returns: intent, confidence, matched (true only for a unique highest score)
func (m *RuleMatcher) Match(input string) (Intent, float32, bool) {
	lower := strings.ToLower(input)

	best, bestScore, tie := IntentFallback, 0, false
	for _, intent := range m.intents {
		score := m.calculateScore(input, lower, m.triggers[intent])
		switch {
		case score > bestScore:
			best, bestScore, tie = intent, score, false
		case score == bestScore && score > 0:
			tie = true
		}
	}

	// Ambiguous or unmatched input needs the next layer.
	if bestScore == 0 || tie {
		return IntentFallback, 0, false
	}
	return best, m.normalizeConfidence(bestScore, 2), true
}

// calculateScore counts the matching triggers.
func (m *RuleMatcher) calculateScore(input, lower string, triggers []trigger) int {
	score := 0
	for _, t := range triggers {
		if t.pattern != nil {
			if t.pattern.MatchString(input) {
				score++
			}
			continue
		}
		if strings.Contains(lower, t.phrase) {
			score++
		}
	}
	return score
}

// normalizeConfidence normalizes score to 0-1 confidence range.
func (m *RuleMatcher) normalizeConfidence(score, maxScore int) float32 {
	if score >= maxScore {
		return 0.95
	}
	return 0.95 * float32(score) / float32(maxScore)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
