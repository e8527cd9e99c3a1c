package interview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vivavoce/vivavoce/pkg/provider/llm"
)

// seedExchanges appends n completed exchanges with numbered content.
func seedExchanges(t *testing.T, s *Session, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := s.appendExchange(
			Turn{
				Role:       llm.RoleUser,
				Content:    fmt.Sprintf("composed prompt %d", i),
				Transcript: fmt.Sprintf("answer %d", i),
			},
			Turn{Role: llm.RoleAssistant, Content: fmt.Sprintf("question %d", i)},
		)
		if err != nil {
			t.Fatalf("exchange %d: %v", i, err)
		}
	}
}

func TestDigest(t *testing.T) {
	t.Run("no exchanges", func(t *testing.T) {
		s := NewSession("directive")
		if got := Digest(s, 3); len(got) != 0 {
			t.Errorf("got %d pairs, want 0", len(got))
		}
	})

	t.Run("two priors yield both pairs in order", func(t *testing.T) {
		s := NewSession("directive")
		seedExchanges(t, s, 2)

		pairs := Digest(s, 3)
		if len(pairs) != 2 {
			t.Fatalf("got %d pairs, want 2", len(pairs))
		}
		if pairs[0].Question != "question 1" || pairs[0].Answer != "answer 1" {
			t.Errorf("pairs[0] = %+v, want question 1/answer 1", pairs[0])
		}
		if pairs[1].Question != "question 2" || pairs[1].Answer != "answer 2" {
			t.Errorf("pairs[1] = %+v, want question 2/answer 2", pairs[1])
		}
	})

	t.Run("five priors keep only the last three", func(t *testing.T) {
		s := NewSession("directive")
		seedExchanges(t, s, 5)

		pairs := Digest(s, 3)
		if len(pairs) != 3 {
			t.Fatalf("got %d pairs, want 3", len(pairs))
		}
		for i, wantN := range []int{3, 4, 5} {
			if want := fmt.Sprintf("question %d", wantN); pairs[i].Question != want {
				t.Errorf("pairs[%d].Question = %q, want %q", i, pairs[i].Question, want)
			}
		}
	})
}

func TestRenderDigest(t *testing.T) {
	t.Run("sentinel for empty digest", func(t *testing.T) {
		if got := RenderDigest(nil); got != NoPriorContext {
			t.Errorf("RenderDigest(nil) = %q, want sentinel", got)
		}
	})

	t.Run("alternating Q/A blocks", func(t *testing.T) {
		got := RenderDigest([]QA{
			{Question: "q1", Answer: "a1"},
			{Question: "q2", Answer: "a2"},
		})
		want := "Q: q1\nA: a1\n\nQ: q2\nA: a2"
		if got != want {
			t.Errorf("RenderDigest() = %q, want %q", got, want)
		}
	})
}

func TestAnswerText_Fallbacks(t *testing.T) {
	t.Run("structured field wins", func(t *testing.T) {
		turn := Turn{
			Role:       llm.RoleUser,
			Content:    "Student said:\nnot this\n\nScreen shows:\nx",
			Transcript: "the real answer",
		}
		if got := answerText(turn); got != "the real answer" {
			t.Errorf("answerText() = %q, want structured transcript", got)
		}
	})

	t.Run("marker scan on restored history", func(t *testing.T) {
		turn := Turn{
			Role: llm.RoleUser,
			Content: "This is the first interaction. The student just started presenting.\n\n" +
				"Student said:\nI built a cache\nwith consistent hashing\n\n" +
				"Screen shows:\ndiagram\n\nGreet them briefly.",
		}
		if got := answerText(turn); got != "I built a cache with consistent hashing" {
			t.Errorf("answerText() = %q, want joined answer lines", got)
		}
	})

	t.Run("follow-up marker scan stops at section heading", func(t *testing.T) {
		turn := Turn{
			Role: llm.RoleUser,
			Content: "PREVIOUS CONVERSATION CONTEXT:\nQ: old\nA: old\n\n" +
				"STUDENT'S LATEST RESPONSE:\nwe shard by user id\n\n" +
				"CURRENT SCREEN CONTENT:\ncode\n\nBased on:\n1. everything",
		}
		if got := answerText(turn); got != "we shard by user id" {
			t.Errorf("answerText() = %q, want %q", got, "we shard by user id")
		}
	})

	t.Run("no marker truncates to prefix", func(t *testing.T) {
		long := strings.Repeat("x", 400)
		turn := Turn{Role: llm.RoleUser, Content: long}
		got := answerText(turn)
		if len(got) != legacyFallbackChars {
			t.Errorf("len = %d, want %d", len(got), legacyFallbackChars)
		}
	})

	t.Run("no marker short content passes through", func(t *testing.T) {
		turn := Turn{Role: llm.RoleUser, Content: "short"}
		if got := answerText(turn); got != "short" {
			t.Errorf("answerText() = %q, want %q", got, "short")
		}
	})
}
