package interview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Scorecard is the structured end-of-interview evaluation. All four scores
// are on a 1-10 scale.
type Scorecard struct {
	TechnicalDepth int    `json:"technical_depth"`
	Clarity        int    `json:"clarity"`
	Originality    int    `json:"originality"`
	Implementation int    `json:"implementation"`
	Feedback       string `json:"feedback"`
}

// ParseScorecard decodes a model completion into a Scorecard. Models that
// ignore the structured-output instruction and wrap the object in markdown
// fences are tolerated.
func ParseScorecard(completion string) (*Scorecard, error) {
	raw := stripFences(completion)

	var sc Scorecard
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return nil, fmt.Errorf("interview: decode scorecard: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scorecard) validate() error {
	for _, s := range []struct {
		name  string
		score int
	}{
		{"technical_depth", sc.TechnicalDepth},
		{"clarity", sc.Clarity},
		{"originality", sc.Originality},
		{"implementation", sc.Implementation},
	} {
		if s.score < 1 || s.score > 10 {
			return fmt.Errorf("interview: scorecard %s = %d is outside [1, 10]", s.name, s.score)
		}
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, and any text outside it.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	s = s[start+3:]
	// Drop a language tag such as "json" on the fence line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(s[:nl])
		if firstLine == "json" || firstLine == "" {
			s = s[nl+1:]
		}
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
