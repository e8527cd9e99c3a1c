// Package interview implements the conversation core of the interview server:
// the append-only session history, the bounded recent-context digest, prompt
// construction, and scorecard generation.
package interview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vivavoce/vivavoce/pkg/provider/llm"
)

// ErrRoleOrder is returned when an append would break the strict
// user/assistant alternation of the history.
var ErrRoleOrder = errors.New("interview: history roles must alternate user/assistant")

// Turn is one exchange unit stored in the interview history. Turns are never
// mutated after creation.
//
// Content always carries the full text sent to (or received from) the model.
// For user turns the structured fields additionally record what went into the
// composed prompt, so that digest derivation reads fields directly instead of
// re-parsing rendered prompt text. Turns restored from external history may
// have empty structured fields; the digest falls back to scanning Content.
type Turn struct {
	Role    llm.Role
	Content string

	// Transcript is the candidate's spoken answer for this turn.
	// Set on user turns only.
	Transcript string

	// ScreenText is the text extracted from the candidate's screen for this
	// turn. Set on user turns only.
	ScreenText string

	// Digest is the recent-context digest that was embedded in this turn's
	// prompt. Set on follow-up user turns only.
	Digest string
}

// Session is the aggregate holding the ordered interview history.
//
// The first turn is always the single system directive, established at
// construction and never removed. Subsequent turns alternate strictly
// user, assistant, user, assistant. The structure is append-only for the
// life of a session; reset means constructing a new Session and discarding
// the old one.
//
// All methods are safe for concurrent use.
type Session struct {
	mu                    sync.Mutex
	turns                 []Turn
	awaitingFirstQuestion bool
}

// NewSession creates a fresh session seeded with the system directive.
func NewSession(systemDirective string) *Session {
	return &Session{
		turns: []Turn{{
			Role:    llm.RoleSystem,
			Content: systemDirective,
		}},
		awaitingFirstQuestion: true,
	}
}

// AwaitingFirstQuestion reports whether no assistant question has been
// generated yet. It flips to false permanently after the first successful
// exchange.
func (s *Session) AwaitingFirstQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingFirstQuestion
}

// Len returns the number of turns including the system directive.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Turns returns a snapshot copy of the history.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Messages returns the history converted to the chat message form expected
// by LLM providers.
func (s *Session) Messages() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]llm.Message, len(s.turns))
	for i, t := range s.turns {
		msgs[i] = llm.Message{Role: t.Role, Content: t.Content}
	}
	return msgs
}

// appendExchange appends one user turn and its assistant reply atomically and
// marks the first question as asked. The alternation invariant is checked
// against the last stored turn; a violation means a caller bypassed the
// single-writer discipline.
func (s *Session) appendExchange(user Turn, assistant Turn) error {
	if user.Role != llm.RoleUser || assistant.Role != llm.RoleAssistant {
		return fmt.Errorf("%w: got %s then %s", ErrRoleOrder, user.Role, assistant.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.turns[len(s.turns)-1]
	if last.Role == llm.RoleUser {
		return fmt.Errorf("%w: user turn already pending", ErrRoleOrder)
	}

	s.turns = append(s.turns, user, assistant)
	s.awaitingFirstQuestion = false
	return nil
}

// exchanges returns the completed (question, answer-turn) pairs in order.
// Exchange i pairs the i-th user turn with the assistant question it
// produced. Must be called with s.mu held.
func (s *Session) exchanges() []exchange {
	var (
		users      []Turn
		assistants []Turn
	)
	for _, t := range s.turns {
		switch t.Role {
		case llm.RoleUser:
			users = append(users, t)
		case llm.RoleAssistant:
			assistants = append(assistants, t)
		}
	}

	n := min(len(users), len(assistants))
	out := make([]exchange, 0, n)
	for i := range n {
		out = append(out, exchange{question: assistants[i], answer: users[i]})
	}
	return out
}

type exchange struct {
	question Turn
	answer   Turn
}
