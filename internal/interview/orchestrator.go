package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/talvik/intervu/internal/ai"
	"github.com/talvik/intervu/internal/logger"
	"github.com/talvik/intervu/internal/store"
)

const persistTimeout = 10 * time.Second

// state is an explicit phase of the interview state machine.
type state int

const (
	stateInitializing state = iota
	stateAwaitingAnswer
	stateEvaluating
	stateRouting
	stateFinalizing
	stateTerminated
)

func (s state) String() string {
	switch s {
	case stateInitializing:
		return "initializing"
	case stateAwaitingAnswer:
		return "awaiting_answer"
	case stateEvaluating:
		return "evaluating"
	case stateRouting:
		return "routing"
	case stateFinalizing:
		return "finalizing"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ResultSaver is the slice of the session store the orchestrator needs.
type ResultSaver interface {
	SaveResult(ctx context.Context, input store.ResultInput) error
}

// Config tunes orchestrator behavior.
type Config struct {
	MaxRounds int
	EndPhrase string
	// AnswerTimeout bounds the wait for a candidate answer. Zero means an
	// unbounded wait.
	AnswerTimeout time.Duration
}

// Orchestrator drives one interview session over one connection: it
// sequences the agent calls, applies their results to the session, and
// persists the accumulated state exactly once when the session ends, however
// it ends.
type Orchestrator struct {
	agents        ai.Agents
	saver         ResultSaver
	router        Router
	answerTimeout time.Duration
	logger        *zap.Logger
}

func NewOrchestrator(agents ai.Agents, saver ResultSaver, cfg Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		agents:        agents,
		saver:         saver,
		router:        NewRouter(cfg.MaxRounds, cfg.EndPhrase),
		answerTimeout: cfg.AnswerTimeout,
		logger:        log,
	}
}

// Run executes the state machine until termination, disconnect, or a
// session-fatal error. Whatever state has accumulated is persisted on every
// exit path.
func (o *Orchestrator) Run(ctx context.Context, sess *Session, conn Conn) (err error) {
	log := o.logger.With(zap.String(logger.FieldSession, sess.ID))

	defer func() {
		if pErr := o.persist(sess); pErr != nil {
			log.Error("persisting session results", zap.Error(pErr))
		}
	}()

	current := stateInitializing
	for current != stateTerminated {
		log.Debug("state transition", zap.Stringer("state", current), zap.Int("rounds", sess.Rounds()))

		switch current {
		case stateInitializing:
			if err := o.initialize(ctx, sess, conn); err != nil {
				return err
			}
			current = stateAwaitingAnswer

		case stateAwaitingAnswer:
			answer, err := o.awaitAnswer(ctx, conn)
			if errors.Is(err, ErrDisconnected) {
				log.Info("candidate disconnected", zap.Int("rounds", sess.Rounds()))
				return nil
			}
			if err != nil {
				return err
			}
			sess.Turns = append(sess.Turns, ai.Turn{
				Question: sess.CurrentQuestion,
				Answer:   answer,
			})
			current = stateEvaluating

		case stateEvaluating:
			o.evaluate(ctx, sess, log)
			current = stateRouting

		case stateRouting:
			decision := o.router.Decide(sess.Rounds(), sess.LastTurn().Answer)
			log.Info("routing decision",
				zap.String("decision", string(decision)),
				zap.Int("rounds", sess.Rounds()),
			)
			if decision == DecisionEnd {
				current = stateFinalizing
				continue
			}
			if err := o.askNext(ctx, sess, conn); err != nil {
				return err
			}
			current = stateAwaitingAnswer

		case stateFinalizing:
			if err := o.finalize(ctx, sess, conn); err != nil {
				return err
			}
			current = stateTerminated
		}
	}

	log.Info("interview terminated",
		zap.Int("rounds", sess.Rounds()),
		zap.Int("score", sess.Report.Score),
	)

	return nil
}

// initialize runs context analysis exactly once and sends the opening
// question. Both failures are session-fatal: no interview can proceed
// without a context profile or a question.
func (o *Orchestrator) initialize(ctx context.Context, sess *Session, conn Conn) error {
	summary, err := o.agents.Context.AnalyzeContext(ctx, ai.ContextInput{
		JobDescription: sess.JobDescription,
		CompanyInfo:    sess.CompanyInfo,
		ResumeText:     sess.ResumeText,
	})
	if err != nil {
		return fmt.Errorf("context analysis: %w", err)
	}
	sess.Context = summary

	question, err := o.agents.Question.NextQuestion(ctx, ai.QuestionInput{Context: sess.Context})
	if err != nil {
		return fmt.Errorf("opening question: %w", err)
	}
	sess.CurrentQuestion = question

	if err := conn.SendQuestion(question); err != nil {
		return fmt.Errorf("sending opening question: %w", err)
	}

	return nil
}

func (o *Orchestrator) awaitAnswer(ctx context.Context, conn Conn) (string, error) {
	if o.answerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.answerTimeout)
		defer cancel()
	}

	answer, err := conn.ReadAnswer(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("answer wait: %w", err)
		}
		return "", err
	}

	return answer, nil
}

// evaluate runs sentiment analysis and answer verification concurrently.
// Both read the same immutable answer and write to disjoint fields. Their
// failure never aborts the session: a placeholder record keeps the parallel
// sequences aligned.
func (o *Orchestrator) evaluate(ctx context.Context, sess *Session, log *zap.Logger) {
	turn := sess.LastTurn()

	var (
		wg           sync.WaitGroup
		sentiment    *ai.SentimentRecord
		sentimentErr error
		verdict      *ai.VerificationRecord
		verdictErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		sentiment, sentimentErr = o.agents.Sentiment.AnalyzeSentiment(ctx, turn.Answer)
	}()
	go func() {
		defer wg.Done()
		verdict, verdictErr = o.agents.Verifier.Verify(ctx, turn.Question, turn.Answer)
	}()
	wg.Wait()

	if sentimentErr != nil {
		log.Warn("sentiment analysis failed, recording placeholder", zap.Error(sentimentErr))
		sentiment = &ai.SentimentRecord{Sentiment: "Unknown"}
	}
	if verdictErr != nil {
		log.Warn("answer verification failed, recording placeholder", zap.Error(verdictErr))
		verdict = &ai.VerificationRecord{Explanation: "verification unavailable"}
	}

	sess.Sentiments = append(sess.Sentiments, *sentiment)
	sess.Verifications = append(sess.Verifications, *verdict)
}

func (o *Orchestrator) askNext(ctx context.Context, sess *Session, conn Conn) error {
	question, err := o.agents.Question.NextQuestion(ctx, ai.QuestionInput{
		Context:  sess.Context,
		Previous: sess.LastTurn(),
	})
	if err != nil {
		return fmt.Errorf("next question: %w", err)
	}
	sess.CurrentQuestion = question

	if err := conn.SendQuestion(question); err != nil {
		return fmt.Errorf("sending question: %w", err)
	}

	return nil
}

func (o *Orchestrator) finalize(ctx context.Context, sess *Session, conn Conn) error {
	report, err := o.agents.Scorer.Score(ctx, ai.ScoringInput{
		Context:       sess.Context,
		Turns:         sess.Turns,
		Verifications: sess.Verifications,
	})
	if err != nil {
		return fmt.Errorf("final scoring: %w", err)
	}
	sess.Report = report

	if err := conn.SendReport(report); err != nil {
		return fmt.Errorf("sending final report: %w", err)
	}

	return nil
}

// persist writes the accumulated session artifacts. It runs on a fresh
// context so a canceled connection context cannot prevent the save.
func (o *Orchestrator) persist(sess *Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	return o.saver.SaveResult(ctx, store.ResultInput{
		SessionID:  sess.ID,
		Context:    sess.Context,
		Report:     sess.Report,
		Sentiments: sess.Sentiments,
	})
}
