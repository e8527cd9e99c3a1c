// Package transcript post-processes speech recognition output before it
// reaches the interview history.
//
// Consumer speech models reliably mangle domain vocabulary ("kuber netties"
// for "Kubernetes", "post gress" for "PostgreSQL"). The Corrector restores
// configured keywords using Double Metaphone phonetic encoding for candidate
// filtering and Jaro-Winkler similarity for ranked selection, so an
// interviewer question never echoes a garbled term back at the candidate.
package transcript

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched keyword to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(c *Corrector) { c.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found and the corrector falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *Corrector) { c.fuzzyThreshold = threshold }
}

// Corrector restores known keywords in a transcript. It is read-only after
// construction and safe for concurrent use.
type Corrector struct {
	keywords          []string
	maxKeywordTokens  int
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewCorrector returns a Corrector for the given keyword list. An empty list
// yields a pass-through corrector.
func NewCorrector(keywords []string, opts ...Option) *Corrector {
	c := &Corrector{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		c.keywords = append(c.keywords, kw)
		if n := len(strings.Fields(kw)); n > c.maxKeywordTokens {
			c.maxKeywordTokens = n
		}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct returns text with recognised keyword near-misses replaced by their
// canonical spelling. Windows of up to the longest keyword's token count are
// tested, longest first, so "kuber netties" collapses into a single keyword.
func (c *Corrector) Correct(text string) string {
	if len(c.keywords) == 0 {
		return text
	}

	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); {
		replaced := false
		for width := min(c.maxKeywordTokens, len(tokens)-i); width >= 1 && !replaced; width-- {
			window := strings.Join(tokens[i:i+width], " ")
			core, prefix, suffix := trimPunct(window)
			if core == "" {
				continue
			}
			if kw, ok := c.match(core); ok {
				out = append(out, prefix+kw+suffix)
				i += width
				replaced = true
			}
		}
		if !replaced {
			out = append(out, tokens[i])
			i++
		}
	}

	return strings.Join(out, " ")
}

// match finds the keyword most similar to word, or reports no match.
// Phonetic candidates (sharing a Double Metaphone code) win at the lower
// threshold; otherwise a pure similarity pass applies the stricter one.
func (c *Corrector) match(word string) (string, bool) {
	wordLower := strings.ToLower(word)
	wordCodes := metaphoneCodes(strings.Fields(wordLower))

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)

	for _, kw := range c.keywords {
		kwLower := strings.ToLower(kw)
		kwTokens := strings.Fields(kwLower)

		phonetic := codesOverlap(wordCodes, metaphoneCodes(kwTokens))
		score := similarity(wordLower, kwLower)

		switch {
		case phonetic && score >= c.phoneticThreshold:
			if !bestPhonetic || score > bestScore {
				best, bestScore, bestPhonetic = kw, score, true
			}
		case !phonetic && !bestPhonetic && score >= c.fuzzyThreshold:
			if score > bestScore {
				best, bestScore = kw, score
			}
		}
	}

	return best, best != ""
}

// similarity is the best Jaro-Winkler score between the two phrases,
// compared both as-is and with spaces stripped so that split or fused
// compounds still align.
func similarity(a, b string) float64 {
	score := matchr.JaroWinkler(a, b, false)
	if strings.ContainsRune(a, ' ') || strings.ContainsRune(b, ' ') {
		fused := matchr.JaroWinkler(
			strings.ReplaceAll(a, " ", ""),
			strings.ReplaceAll(b, " ", ""),
			false,
		)
		if fused > score {
			score = fused
		}
	}
	return score
}

// metaphoneCodes returns the union of Double Metaphone codes for the tokens.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// trimPunct splits leading and trailing punctuation off a window so that
// "Kubernetes," matches and the comma survives replacement.
func trimPunct(s string) (core, prefix, suffix string) {
	start := 0
	for start < len(s) && isPunct(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isPunct(s[end-1]) {
		end--
	}
	return s[start:end], s[:start], s[end:]
}

func isPunct(b byte) bool {
	switch b {
	case '.', ',', '!', '?', ';', ':', '"', '\'', '(', ')', '[', ']':
		return true
	}
	return false
}
