package interview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vivavoce/vivavoce/pkg/provider/llm"
)

// Manager owns prompt construction and the history append discipline. It is
// the only component that writes to a [Session]; the orchestrator guarantees
// that at most one NextQuestion call is in flight per session.
type Manager struct {
	provider    llm.Provider
	digestPairs int
	logger      *slog.Logger
}

// ManagerConfig configures a [Manager].
type ManagerConfig struct {
	// Provider generates questions and scorecards. Must not be nil.
	Provider llm.Provider

	// DigestPairs caps how many recent exchanges the follow-up digest
	// carries. Defaults to 3 if zero or negative.
	DigestPairs int

	// Logger receives turn-level diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewManager creates a [Manager] with the given configuration.
func NewManager(cfg ManagerConfig) *Manager {
	pairs := cfg.DigestPairs
	if pairs <= 0 {
		pairs = 3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		provider:    cfg.Provider,
		digestPairs: pairs,
		logger:      logger,
	}
}

// NextQuestion runs one accepted utterance through the question cycle: it
// composes the opening or follow-up prompt depending on session state,
// appends the user turn, invokes the model with the full ordered history,
// appends the reply as an assistant turn, and returns the question.
//
// This is the single state-mutating operation of the turn cycle. It must
// never run concurrently with itself for the same session.
func (m *Manager) NextQuestion(ctx context.Context, s *Session, transcript, screenText string) (string, error) {
	turn := Turn{
		Role:       llm.RoleUser,
		Transcript: transcript,
		ScreenText: screenText,
	}

	if s.AwaitingFirstQuestion() {
		turn.Content = ComposeOpeningPrompt(transcript, screenText)
	} else {
		turn.Digest = RenderDigest(Digest(s, m.digestPairs))
		turn.Content = ComposeFollowupPrompt(transcript, screenText, turn.Digest)
		m.logger.Debug("derived context digest", "digest", turn.Digest)
	}

	messages := append(s.Messages(), llm.Message{Role: llm.RoleUser, Content: turn.Content})

	resp, err := m.provider.Complete(ctx, llm.CompletionRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("interview: generate question: %w", err)
	}

	if err := s.appendExchange(turn, Turn{Role: llm.RoleAssistant, Content: resp.Content}); err != nil {
		return "", err
	}

	m.logger.Info("question generated",
		"history_turns", s.Len(),
		"transcript_chars", len(transcript),
		"screen_chars", len(screenText),
	)
	return resp.Content, nil
}

// Evaluate produces the scorecard from the full interview so far. The
// evaluation prompt is appended only to a copy of the history, so repeated
// calls are idempotent and do not pollute the ongoing interview.
func (m *Manager) Evaluate(ctx context.Context, s *Session) (*Scorecard, error) {
	messages := append(s.Messages(), llm.Message{Role: llm.RoleUser, Content: scorecardPrompt})

	resp, err := m.provider.Complete(ctx, llm.CompletionRequest{
		Messages:   messages,
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("interview: generate scorecard: %w", err)
	}

	sc, err := ParseScorecard(resp.Content)
	if err != nil {
		return nil, err
	}

	m.logger.Info("scorecard generated",
		"technical_depth", sc.TechnicalDepth,
		"clarity", sc.Clarity,
		"originality", sc.Originality,
		"implementation", sc.Implementation,
	)
	return sc, nil
}
