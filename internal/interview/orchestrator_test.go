package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/talvik/intervu/internal/ai"
	"github.com/talvik/intervu/internal/store"
)

type stubAgents struct {
	contextCalls   int
	contextErr     error
	questionCalls  int
	questionErr    error
	followupErr    error
	sentimentErr   error
	verifyErr      error
	scoreErr       error
	verifyCorrect  bool
}

func (s *stubAgents) AnalyzeContext(_ context.Context, _ ai.ContextInput) (*ai.ContextSummary, error) {
	s.contextCalls++
	if s.contextErr != nil {
		return nil, s.contextErr
	}
	return &ai.ContextSummary{
		CandidateName:   "Jane Doe",
		RoleTitle:       "Backend Engineer",
		ExperienceLevel: "Senior",
		FitSummary:      "Good fit.",
	}, nil
}

func (s *stubAgents) NextQuestion(_ context.Context, input ai.QuestionInput) (string, error) {
	s.questionCalls++
	if input.Previous == nil {
		if s.questionErr != nil {
			return "", s.questionErr
		}
		return fmt.Sprintf("Hello %s, please introduce yourself.", input.Context.CandidateName), nil
	}
	if s.followupErr != nil {
		return "", s.followupErr
	}
	return fmt.Sprintf("Follow-up %d", s.questionCalls), nil
}

func (s *stubAgents) AnalyzeSentiment(_ context.Context, _ string) (*ai.SentimentRecord, error) {
	if s.sentimentErr != nil {
		return nil, s.sentimentErr
	}
	return &ai.SentimentRecord{Sentiment: "Neutral", Explanation: "steady"}, nil
}

func (s *stubAgents) Verify(_ context.Context, _, _ string) (*ai.VerificationRecord, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &ai.VerificationRecord{Correct: s.verifyCorrect, Explanation: "checked"}, nil
}

func (s *stubAgents) Score(_ context.Context, input ai.ScoringInput) (*ai.FinalReport, error) {
	if s.scoreErr != nil {
		return nil, s.scoreErr
	}
	correct := 0
	for _, v := range input.Verifications {
		if v.Correct {
			correct++
		}
	}
	return &ai.FinalReport{
		QuestionsAsked:    len(input.Turns),
		CorrectAnswers:    correct,
		OverallSummary:    "Done.",
		ImprovementPoints: []string{"Practice more."},
		Score:             75,
	}, nil
}

func (s *stubAgents) agents() ai.Agents {
	return ai.Agents{
		Context:   s,
		Question:  s,
		Sentiment: s,
		Verifier:  s,
		Scorer:    s,
	}
}

type fakeConn struct {
	answers   []string
	questions []string
	report    *ai.FinalReport
	// block makes ReadAnswer wait on the context once answers run out
	// instead of reporting a disconnect.
	block bool
}

func (c *fakeConn) ReadAnswer(ctx context.Context) (string, error) {
	if len(c.answers) == 0 {
		if c.block {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "", ErrDisconnected
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer, nil
}

func (c *fakeConn) SendQuestion(text string) error {
	c.questions = append(c.questions, text)
	return nil
}

func (c *fakeConn) SendReport(report *ai.FinalReport) error {
	c.report = report
	return nil
}

type fakeSaver struct {
	saves []store.ResultInput
}

func (s *fakeSaver) SaveResult(_ context.Context, input store.ResultInput) error {
	s.saves = append(s.saves, input)
	return nil
}

func newTestOrchestrator(agents *stubAgents, saver ResultSaver, cfg Config) *Orchestrator {
	return NewOrchestrator(agents.agents(), saver, cfg, zap.NewNop())
}

func newTestSession() *Session {
	return &Session{
		ID:             "session-1",
		ResumeText:     "resume",
		CompanyInfo:    "company",
		JobDescription: "job",
	}
}

func TestOrchestratorHappyPath(t *testing.T) {
	agents := &stubAgents{verifyCorrect: true}
	saver := &fakeSaver{}
	conn := &fakeConn{answers: []string{
		"I am Jane.", "Answer two.", "Answer three.", "Answer four.", "Answer five.",
	}}
	sess := newTestSession()

	o := newTestOrchestrator(agents, saver, Config{})
	if err := o.Run(context.Background(), sess, conn); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(conn.questions) != 5 {
		t.Fatalf("expected 5 questions sent, got %d", len(conn.questions))
	}
	if !strings.Contains(conn.questions[0], "Jane Doe") {
		t.Fatalf("opening question should reference the candidate: %q", conn.questions[0])
	}

	if conn.report == nil {
		t.Fatal("expected a final report")
	}
	if conn.report.QuestionsAsked != 5 {
		t.Fatalf("expected 5 questions asked, got %d", conn.report.QuestionsAsked)
	}
	if conn.report.CorrectAnswers != 5 {
		t.Fatalf("expected 5 correct answers, got %d", conn.report.CorrectAnswers)
	}

	if len(sess.Turns) != 5 || len(sess.Sentiments) != 5 || len(sess.Verifications) != 5 {
		t.Fatalf("parallel sequences out of sync: turns=%d sentiments=%d verifications=%d",
			len(sess.Turns), len(sess.Sentiments), len(sess.Verifications))
	}

	if agents.contextCalls != 1 {
		t.Fatalf("context analysis must run exactly once, ran %d times", agents.contextCalls)
	}

	if len(saver.saves) != 1 {
		t.Fatalf("expected exactly one persist, got %d", len(saver.saves))
	}
	saved := saver.saves[0]
	if saved.SessionID != "session-1" || saved.Report == nil || len(saved.Sentiments) != 5 {
		t.Fatalf("unexpected saved result: %+v", saved)
	}
}

func TestOrchestratorEarlyTermination(t *testing.T) {
	agents := &stubAgents{}
	saver := &fakeSaver{}
	conn := &fakeConn{answers: []string{
		"I am Jane.",
		"I'd like to end the interview now.",
	}}
	sess := newTestSession()

	o := newTestOrchestrator(agents, saver, Config{})
	if err := o.Run(context.Background(), sess, conn); err != nil {
		t.Fatalf("run: %v", err)
	}

	if conn.report == nil {
		t.Fatal("expected a final report")
	}
	if conn.report.QuestionsAsked != 2 {
		t.Fatalf("expected 2 questions asked, got %d", conn.report.QuestionsAsked)
	}
	if len(conn.questions) != 2 {
		t.Fatalf("expected 2 questions sent, got %d", len(conn.questions))
	}
}

func TestOrchestratorDisconnectMidRound(t *testing.T) {
	agents := &stubAgents{}
	saver := &fakeSaver{}
	conn := &fakeConn{answers: []string{"I am Jane."}}
	sess := newTestSession()

	o := newTestOrchestrator(agents, saver, Config{})
	if err := o.Run(context.Background(), sess, conn); err != nil {
		t.Fatalf("disconnect must not be an error: %v", err)
	}

	if conn.report != nil {
		t.Fatal("no report expected after disconnect")
	}
	if len(saver.saves) != 1 {
		t.Fatalf("expected one best-effort persist, got %d", len(saver.saves))
	}
	saved := saver.saves[0]
	if saved.Report != nil {
		t.Fatalf("persisted report should be nil, got %+v", saved.Report)
	}
	if len(saved.Sentiments) != 1 {
		t.Fatalf("expected 1 sentiment record persisted, got %d", len(saved.Sentiments))
	}
	if saved.Context == nil {
		t.Fatal("context summary should be persisted")
	}
}

func TestOrchestratorContextFailureIsFatal(t *testing.T) {
	agents := &stubAgents{contextErr: &ai.SchemaError{Agent: "context_analyzer", Err: errors.New("bad json")}}
	saver := &fakeSaver{}
	conn := &fakeConn{}
	sess := newTestSession()

	o := newTestOrchestrator(agents, saver, Config{})
	err := o.Run(context.Background(), sess, conn)
	if err == nil {
		t.Fatal("expected fatal error")
	}

	var schemaErr *ai.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema error, got %v", err)
	}

	if len(conn.questions) != 0 {
		t.Fatalf("no question may be sent after context failure, got %d", len(conn.questions))
	}
	if len(saver.saves) != 1 {
		t.Fatalf("expected best-effort persist even on fatal error, got %d", len(saver.saves))
	}
}

func TestOrchestratorEvaluationFailuresAreRecoverable(t *testing.T) {
	agents := &stubAgents{
		sentimentErr: &ai.TransportError{Agent: "sentiment_analyzer", Err: errors.New("timeout")},
		verifyErr:    &ai.SchemaError{Agent: "verifier", Err: errors.New("bad json")},
	}
	saver := &fakeSaver{}
	conn := &fakeConn{answers: []string{"I am Jane.", "end the interview"}}
	sess := newTestSession()

	o := newTestOrchestrator(agents, saver, Config{})
	if err := o.Run(context.Background(), sess, conn); err != nil {
		t.Fatalf("evaluation failures must not abort the session: %v", err)
	}

	if len(sess.Sentiments) != 2 || len(sess.Verifications) != 2 {
		t.Fatalf("placeholders must keep sequences aligned: sentiments=%d verifications=%d",
			len(sess.Sentiments), len(sess.Verifications))
	}
	if sess.Sentiments[0].Sentiment != "Unknown" {
		t.Fatalf("expected placeholder sentiment, got %+v", sess.Sentiments[0])
	}
	if sess.Verifications[0].Correct {
		t.Fatalf("placeholder verification must not count as correct: %+v", sess.Verifications[0])
	}
	if conn.report == nil {
		t.Fatal("interview should still finish with a report")
	}
}

func TestOrchestratorQuestionFailureIsFatal(t *testing.T) {
	agents := &stubAgents{followupErr: &ai.TransportError{Agent: "interviewer", Err: errors.New("boom")}}
	saver := &fakeSaver{}
	conn := &fakeConn{answers: []string{"I am Jane."}}
	sess := newTestSession()

	o := newTestOrchestrator(agents, saver, Config{})
	if err := o.Run(context.Background(), sess, conn); err == nil {
		t.Fatal("expected fatal error on question generation failure")
	}

	if len(saver.saves) != 1 {
		t.Fatalf("expected best-effort persist, got %d", len(saver.saves))
	}
	if len(saver.saves[0].Sentiments) != 1 {
		t.Fatalf("expected first round artifacts persisted, got %+v", saver.saves[0])
	}
}

func TestOrchestratorScoringFailureIsFatal(t *testing.T) {
	agents := &stubAgents{scoreErr: &ai.TransportError{Agent: "final_scorer", Err: errors.New("boom")}}
	saver := &fakeSaver{}
	conn := &fakeConn{answers: []string{"end the interview"}}
	sess := newTestSession()

	o := newTestOrchestrator(agents, saver, Config{})
	if err := o.Run(context.Background(), sess, conn); err == nil {
		t.Fatal("expected fatal error on scoring failure")
	}

	if conn.report != nil {
		t.Fatal("no report may be sent when scoring fails")
	}
	if saver.saves[0].Report != nil {
		t.Fatal("no report may be persisted when scoring fails")
	}
}

func TestOrchestratorAnswerTimeout(t *testing.T) {
	agents := &stubAgents{}
	saver := &fakeSaver{}
	conn := &fakeConn{block: true}
	sess := newTestSession()

	o := newTestOrchestrator(agents, saver, Config{AnswerTimeout: 20 * time.Millisecond})
	err := o.Run(context.Background(), sess, conn)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	if len(saver.saves) != 1 {
		t.Fatalf("expected best-effort persist, got %d", len(saver.saves))
	}
}

func TestStateString(t *testing.T) {
	states := map[state]string{
		stateInitializing:   "initializing",
		stateAwaitingAnswer: "awaiting_answer",
		stateEvaluating:     "evaluating",
		stateRouting:        "routing",
		stateFinalizing:     "finalizing",
		stateTerminated:     "terminated",
		state(99):           "unknown",
	}
	for s, expect := range states {
		if got := s.String(); got != expect {
			t.Fatalf("state(%d).String() = %q, want %q", s, got, expect)
		}
	}
}
