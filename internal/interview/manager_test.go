package interview_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vivavoce/vivavoce/internal/interview"
	"github.com/vivavoce/vivavoce/pkg/provider/llm"
	llmmock "github.com/vivavoce/vivavoce/pkg/provider/llm/mock"
)

func newManager(p llm.Provider) *interview.Manager {
	return interview.NewManager(interview.ManagerConfig{Provider: p})
}

func TestNextQuestion_Opening(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "What problem does your cache solve?"},
	}
	m := newManager(provider)
	s := interview.NewSession(interview.SystemDirective(""))

	question, err := m.NextQuestion(context.Background(),
		s, "I built a distributed cache using consistent hashing", "")
	if err != nil {
		t.Fatalf("NextQuestion() error = %v", err)
	}
	if question != "What problem does your cache solve?" {
		t.Errorf("question = %q", question)
	}
	if s.AwaitingFirstQuestion() {
		t.Error("awaiting flag should flip after the first question")
	}
	if got := s.Len(); got != 3 {
		t.Errorf("history grew to %d turns, want 3", got)
	}

	calls := provider.Calls()
	if len(calls) != 1 {
		t.Fatalf("provider called %d times, want 1", len(calls))
	}
	sent := calls[0].Req.Messages
	if sent[0].Role != llm.RoleSystem {
		t.Errorf("first message role = %s, want system", sent[0].Role)
	}
	last := sent[len(sent)-1]
	if !strings.Contains(last.Content, "This is the first interaction") {
		t.Error("opening turn should use the opening template")
	}
	if !strings.Contains(last.Content, "distributed cache") {
		t.Error("opening prompt should embed the transcript")
	}
}

func TestNextQuestion_FollowupCarriesDigest(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Why consistent hashing?"},
	}
	m := newManager(provider)
	s := interview.NewSession(interview.SystemDirective(""))

	if _, err := m.NextQuestion(context.Background(), s, "first answer", "screen one"); err != nil {
		t.Fatal(err)
	}
	provider.CompleteResponse = &llm.CompletionResponse{Content: "How do you handle rebalancing?"}
	if _, err := m.NextQuestion(context.Background(), s, "second answer", "screen two"); err != nil {
		t.Fatal(err)
	}

	calls := provider.Calls()
	if len(calls) != 2 {
		t.Fatalf("provider called %d times, want 2", len(calls))
	}
	followup := calls[1].Req.Messages
	last := followup[len(followup)-1].Content
	if !strings.Contains(last, "PREVIOUS CONVERSATION CONTEXT:") {
		t.Error("follow-up turn should use the follow-up template")
	}
	if !strings.Contains(last, "A: first answer") {
		t.Errorf("digest should carry the prior answer, got:\n%s", last)
	}
	if !strings.Contains(last, "second answer") {
		t.Error("follow-up prompt should embed the latest transcript")
	}
	if got := s.Len(); got != 5 {
		t.Errorf("history grew to %d turns, want 5", got)
	}
}

func TestNextQuestion_ProviderErrorLeavesHistoryUntouched(t *testing.T) {
	provider := &llmmock.Provider{CompleteErr: errors.New("model offline")}
	m := newManager(provider)
	s := interview.NewSession(interview.SystemDirective(""))

	_, err := m.NextQuestion(context.Background(), s, "an answer", "")
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
	if got := s.Len(); got != 1 {
		t.Errorf("history grew to %d turns on error, want 1", got)
	}
	if !s.AwaitingFirstQuestion() {
		t.Error("awaiting flag must not flip on a failed turn")
	}
}

func TestEvaluate(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{
			Content: `{"technical_depth":7,"clarity":8,"originality":6,"implementation":7,"feedback":"Solid grasp of the design."}`,
		},
	}
	m := newManager(provider)
	s := interview.NewSession(interview.SystemDirective(""))
	if _, err := m.NextQuestion(context.Background(), s, "first answer", ""); err != nil {
		t.Fatal(err)
	}
	lenBefore := s.Len()

	sc, err := m.Evaluate(context.Background(), s)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if sc.TechnicalDepth != 7 || sc.Clarity != 8 || sc.Originality != 6 || sc.Implementation != 7 {
		t.Errorf("scores = %+v", sc)
	}
	if sc.Feedback == "" {
		t.Error("feedback should be populated")
	}

	// Evaluation is read-only over a history snapshot.
	if got := s.Len(); got != lenBefore {
		t.Errorf("history grew from %d to %d during evaluation", lenBefore, got)
	}

	calls := provider.Calls()
	evalReq := calls[len(calls)-1].Req
	if !evalReq.JSONOutput {
		t.Error("evaluation should request structured JSON output")
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{
			Content: `{"technical_depth":5,"clarity":5,"originality":5,"implementation":5,"feedback":"ok"}`,
		},
	}
	m := newManager(provider)
	s := interview.NewSession(interview.SystemDirective(""))

	for range 3 {
		if _, err := m.Evaluate(context.Background(), s); err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
	}
	if got := s.Len(); got != 1 {
		t.Errorf("repeated evaluation mutated history: Len() = %d, want 1", got)
	}
}
