package generation

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/wizerunkowo/wizerunkowo/app/models"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/entitlements"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/replicate"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/upload"
)

const (
	// DefaultPollInterval is the fixed wait between status polls.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxPollAttempts bounds polling at a 5-minute ceiling
	// (150 * 2s).
	DefaultMaxPollAttempts = 150
)

// Provider is the prediction API surface the orchestrator needs. It is
// satisfied by *replicate.Client and by test fakes.
type Provider interface {
	CreatePrediction(ctx context.Context, input replicate.PredictionInput) (*replicate.Prediction, error)
	GetPrediction(ctx context.Context, id string) (*replicate.Prediction, error)
	CancelPrediction(ctx context.Context, id string) error
}

// Ledger is the credits store. DebitForGeneration must be atomic: it
// re-checks credits and the daily limit inside a single conditional update
// and reports false when the check fails at debit time.
type Ledger interface {
	GetEntitlement(userID uint) (entitlements.Entitlement, error)
	DebitForGeneration(userID uint, now time.Time) (bool, error)
}

// Recorder persists generation request state transitions.
type Recorder interface {
	Create(g *models.Generation) error
	Update(g *models.Generation) error
}

// Request is one user-submitted generation. UUID may be pre-assigned when
// the caller already handed an identifier to the client (async submissions);
// when empty a fresh one is generated.
type Request struct {
	UUID     string
	UserID   uint
	Image    []byte
	MimeType string
	Style    Style
}

// Orchestrator drives a generation request through its lifecycle:
// validate, check entitlement, submit, debit, poll, report.
type Orchestrator struct {
	provider Provider
	ledger   Ledger
	recorder Recorder

	pollInterval    time.Duration
	maxPollAttempts int

	// sleep waits between polls; replaced with a fake clock in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolling overrides the poll interval and attempt ceiling.
func WithPolling(interval time.Duration, maxAttempts int) Option {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.pollInterval = interval
		}
		if maxAttempts > 0 {
			o.maxPollAttempts = maxAttempts
		}
	}
}

// WithSleeper replaces the inter-poll wait (fake clocks in tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// WithNow replaces the wall clock (fixed dates in tests).
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires an orchestrator from its collaborators. All three
// are required; options adjust timing behavior.
func NewOrchestrator(provider Provider, ledger Ledger, recorder Recorder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:        provider,
		ledger:          ledger,
		recorder:        recorder,
		pollInterval:    DefaultPollInterval,
		maxPollAttempts: DefaultMaxPollAttempts,
		sleep:           sleepCtx,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Submit runs one generation request to a terminal state and returns the
// uniform outcome. Every failure path resolves to an Outcome; no error or
// panic escapes.
func (o *Orchestrator) Submit(ctx context.Context, req Request) Outcome {
	id := req.UUID
	if id == "" {
		id = uuid.New().String()
	}
	g := &models.Generation{
		UUID:        id,
		UserID:      req.UserID,
		Style:       string(req.Style),
		Status:      models.GenerationStatusValidating,
		SourceMIME:  req.MimeType,
		SourceBytes: int64(len(req.Image)),
	}
	if err := o.recorder.Create(g); err != nil {
		fiberlog.Errorf("[Generation] Failed to create record for user %d: %v", req.UserID, err)
		return failure("", ErrProviderFailed, "internal error: could not record request")
	}

	// Local validation first; a rejected request never touches the
	// provider or the ledger.
	if err := upload.ValidateSourceImage(req.MimeType, int64(len(req.Image))); err != nil {
		return o.finalize(g, failure(g.UUID, ErrInvalidInput, err.Error()), models.GenerationStatusRejected)
	}

	ent, err := o.ledger.GetEntitlement(req.UserID)
	if err != nil {
		fiberlog.Errorf("[Generation] Entitlement lookup failed for user %d: %v", req.UserID, err)
		return o.finalize(g, failure(g.UUID, ErrProviderFailed, "could not load account limits"), models.GenerationStatusFailed)
	}
	switch ent.Check(o.now()) {
	case entitlements.DenyNoCredits:
		return o.finalize(g, failure(g.UUID, ErrNoCredits, "No credits remaining"), models.GenerationStatusRejected)
	case entitlements.DenyDailyLimitReached:
		return o.finalize(g, failure(g.UUID, ErrDailyLimitReached, "Daily generation limit reached"), models.GenerationStatusRejected)
	}

	prediction, err := o.submit(ctx, g, req)
	if err != nil {
		return o.finalize(g, failure(g.UUID, ErrProviderRejected, providerMessage(err)), models.GenerationStatusFailed)
	}

	// Debit exactly once per accepted submission, before polling. The
	// conditional update closes the race where two requests pass the
	// entitlement pre-check with a single credit left.
	debited, err := o.ledger.DebitForGeneration(req.UserID, o.now())
	if err != nil {
		fiberlog.Errorf("[Generation] Debit failed for user %d: %v", req.UserID, err)
		o.cancelRemote(g)
		return o.finalize(g, failure(g.UUID, ErrProviderFailed, "could not reserve a credit"), models.GenerationStatusFailed)
	}
	if !debited {
		o.cancelRemote(g)
		return o.finalize(g, failure(g.UUID, ErrNoCredits, "No credits remaining"), models.GenerationStatusFailed)
	}

	return o.poll(ctx, g, prediction.ID)
}

func (o *Orchestrator) submit(ctx context.Context, g *models.Generation, req Request) (*replicate.Prediction, error) {
	input := replicate.PredictionInput{
		Image:  imageDataURL(req.MimeType, req.Image),
		Prompt: PromptForStyle(req.Style),
	}

	prediction, err := o.provider.CreatePrediction(ctx, input)
	if err != nil {
		fiberlog.Errorf("[Generation] Create prediction failed for %s: %v", g.UUID, err)
		return nil, err
	}
	if prediction.ID == "" {
		return nil, fmt.Errorf("no prediction ID received from provider")
	}

	now := o.now()
	g.Status = models.GenerationStatusSubmitted
	g.PredictionID = prediction.ID
	g.SubmittedAt = &now
	if err := o.recorder.Update(g); err != nil {
		fiberlog.Errorf("[Generation] Failed to record submission for %s: %v", g.UUID, err)
	}
	fiberlog.Infof("[Generation] %s submitted as prediction %s (style=%s)", g.UUID, prediction.ID, g.Style)
	return prediction, nil
}

// poll queries the provider on a fixed interval until a terminal provider
// status or the attempt ceiling. Polls are strictly sequential.
func (o *Orchestrator) poll(ctx context.Context, g *models.Generation, predictionID string) Outcome {
	g.Status = models.GenerationStatusPolling
	if err := o.recorder.Update(g); err != nil {
		fiberlog.Errorf("[Generation] Failed to record polling state for %s: %v", g.UUID, err)
	}

	for attempt := 1; attempt <= o.maxPollAttempts; attempt++ {
		if err := o.sleep(ctx, o.pollInterval); err != nil {
			g.AttemptsMade = attempt - 1
			o.cancelRemote(g)
			return o.finalize(g, failure(g.UUID, ErrTimedOut, "Generation canceled"), models.GenerationStatusTimedOut)
		}
		g.AttemptsMade = attempt

		prediction, err := o.provider.GetPrediction(ctx, predictionID)
		if err != nil {
			// A failed poll is a hard failure, not attempt exhaustion.
			return o.finalize(g, failure(g.UUID, ErrProviderFailed, providerMessage(err)), models.GenerationStatusFailed)
		}

		switch prediction.Status {
		case replicate.StatusSucceeded:
			if len(prediction.Output) == 0 {
				return o.finalize(g, failure(g.UUID, ErrProviderFailed, "no image generated"), models.GenerationStatusFailed)
			}
			g.ResultURL = prediction.Output[0]
			return o.finalize(g, success(g.UUID, prediction.Output[0]), models.GenerationStatusSucceeded)
		case replicate.StatusFailed, replicate.StatusCanceled:
			msg := prediction.Error
			if msg == "" {
				msg = fmt.Sprintf("prediction %s", prediction.Status)
			}
			return o.finalize(g, failure(g.UUID, ErrProviderFailed, msg), models.GenerationStatusFailed)
		}
		// starting/processing: keep polling.
	}

	o.cancelRemote(g)
	return o.finalize(g, failure(g.UUID, ErrTimedOut, "Generation timed out"), models.GenerationStatusTimedOut)
}

// cancelRemote makes a best-effort attempt to stop the provider-side job.
func (o *Orchestrator) cancelRemote(g *models.Generation) {
	if g.PredictionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.provider.CancelPrediction(ctx, g.PredictionID); err != nil {
		fiberlog.Warnf("[Generation] Could not cancel prediction %s: %v", g.PredictionID, err)
	}
}

// finalize records the terminal state exactly once and returns the outcome.
// A generation that already reached a terminal state is never rewritten.
func (o *Orchestrator) finalize(g *models.Generation, outcome Outcome, status string) Outcome {
	if g.IsTerminal() {
		return outcome
	}
	now := o.now()
	g.Status = status
	g.CompletedAt = &now
	if !outcome.OK {
		g.ErrorKind = string(outcome.ErrorKind)
		g.ErrorDetail = outcome.ErrorMessage
	}
	if err := o.recorder.Update(g); err != nil {
		fiberlog.Errorf("[Generation] Failed to record terminal state for %s: %v", g.UUID, err)
	}
	if outcome.OK {
		fiberlog.Infof("[Generation] %s succeeded after %d polls", g.UUID, g.AttemptsMade)
	} else {
		fiberlog.Infof("[Generation] %s ended %s (%s): %s", g.UUID, status, outcome.ErrorKind, outcome.ErrorMessage)
	}
	return outcome
}

func imageDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// providerMessage extracts displayable provider error text. Transport
// details are preserved; credentials never appear in provider bodies.
func providerMessage(err error) string {
	if perr, ok := err.(*replicate.ProviderError); ok && perr.Body != "" {
		return perr.Body
	}
	return err.Error()
}
