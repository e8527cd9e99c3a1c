package interview

import "strings"

// NoPriorContext is the digest rendered before any exchange has completed.
const NoPriorContext = "First question - no prior context"

// legacyFallbackChars bounds the answer text taken from a user turn whose
// content carries no recognisable answer marker.
const legacyFallbackChars = 150

// QA is one question/answer pair of the recent-context digest.
type QA struct {
	Question string
	Answer   string
}

// Digest derives the bounded recent-context view from a session: the last
// maxPairs completed exchanges, oldest first. It is computed on demand and
// never stored.
func Digest(s *Session, maxPairs int) []QA {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex := s.exchanges()
	if maxPairs >= 0 && len(ex) > maxPairs {
		ex = ex[len(ex)-maxPairs:]
	}

	out := make([]QA, 0, len(ex))
	for _, e := range ex {
		out = append(out, QA{
			Question: e.question.Content,
			Answer:   answerText(e.answer),
		})
	}
	return out
}

// RenderDigest formats pairs as alternating Q:/A: blocks for embedding into
// a follow-up prompt. An empty digest renders as [NoPriorContext].
func RenderDigest(pairs []QA) string {
	if len(pairs) == 0 {
		return NoPriorContext
	}
	blocks := make([]string, len(pairs))
	for i, p := range pairs {
		blocks[i] = "Q: " + p.Question + "\nA: " + p.Answer
	}
	return strings.Join(blocks, "\n\n")
}

// answerText extracts the candidate's spoken answer from a user turn.
// Turns written by this server carry the transcript as a structured field.
// Turns restored from external history fall back to scanning the composed
// prompt for the answer section markers, and finally to a fixed-length
// prefix of the raw content.
func answerText(t Turn) string {
	if t.Transcript != "" {
		return t.Transcript
	}
	if a, ok := scanMarkedAnswer(t.Content); ok {
		return a
	}
	if len(t.Content) > legacyFallbackChars {
		return t.Content[:legacyFallbackChars]
	}
	return t.Content
}

// scanMarkedAnswer locates the answer section inside a composed prompt: the
// lines between a "Student ..." marker line and the next section heading.
func scanMarkedAnswer(content string) (string, bool) {
	if !strings.Contains(content, "Student said:") &&
		!strings.Contains(content, "Student's response:") &&
		!strings.Contains(content, "STUDENT'S LATEST RESPONSE:") {
		return "", false
	}

	var (
		answer    []string
		capturing bool
	)
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "Student") || strings.Contains(line, "STUDENT") {
			capturing = true
			continue
		}
		if capturing && (strings.HasPrefix(line, "Screen") ||
			strings.HasPrefix(line, "CURRENT") ||
			strings.HasPrefix(line, "Based on")) {
			break
		}
		if capturing && strings.TrimSpace(line) != "" {
			answer = append(answer, strings.TrimSpace(line))
		}
	}
	return strings.Join(answer, " "), true
}
