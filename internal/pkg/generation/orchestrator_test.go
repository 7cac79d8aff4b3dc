package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizerunkowo/wizerunkowo/app/models"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/entitlements"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/replicate"
)

type fakeProvider struct {
	createResp  *replicate.Prediction
	createErr   error
	createCalls int

	pollResps []*replicate.Prediction
	pollErr   error
	pollCalls int

	cancelCalls int
}

func (f *fakeProvider) CreatePrediction(ctx context.Context, input replicate.PredictionInput) (*replicate.Prediction, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeProvider) GetPrediction(ctx context.Context, id string) (*replicate.Prediction, error) {
	f.pollCalls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	idx := f.pollCalls - 1
	if idx >= len(f.pollResps) {
		idx = len(f.pollResps) - 1
	}
	return f.pollResps[idx], nil
}

func (f *fakeProvider) CancelPrediction(ctx context.Context, id string) error {
	f.cancelCalls++
	return nil
}

type fakeLedger struct {
	ent        entitlements.Entitlement
	entErr     error
	debited    bool
	debitErr   error
	debitCalls int
}

func (f *fakeLedger) GetEntitlement(userID uint) (entitlements.Entitlement, error) {
	return f.ent, f.entErr
}

func (f *fakeLedger) DebitForGeneration(userID uint, now time.Time) (bool, error) {
	f.debitCalls++
	return f.debited, f.debitErr
}

type fakeRecorder struct {
	created  *models.Generation
	statuses []string
}

func (f *fakeRecorder) Create(g *models.Generation) error {
	f.created = g
	f.statuses = append(f.statuses, g.Status)
	return nil
}

func (f *fakeRecorder) Update(g *models.Generation) error {
	f.statuses = append(f.statuses, g.Status)
	return nil
}

func instantSleep(ctx context.Context, d time.Duration) error { return nil }

func validRequest() Request {
	return Request{
		UserID:   1,
		Image:    []byte("fake-jpeg-bytes"),
		MimeType: "image/jpeg",
		Style:    StyleLinkedIn,
	}
}

func entitledLedger() *fakeLedger {
	return &fakeLedger{
		ent:     entitlements.Entitlement{CreditsRemaining: 5, Tier: entitlements.TierFree},
		debited: true,
	}
}

func newTestOrchestrator(p Provider, l Ledger, r Recorder, maxAttempts int) *Orchestrator {
	return NewOrchestrator(p, l, r,
		WithPolling(time.Millisecond, maxAttempts),
		WithSleeper(instantSleep),
	)
}

func TestSubmit_Success(t *testing.T) {
	provider := &fakeProvider{
		createResp: &replicate.Prediction{ID: "pred-1", Status: replicate.StatusStarting},
		pollResps: []*replicate.Prediction{
			{ID: "pred-1", Status: replicate.StatusProcessing},
			{ID: "pred-1", Status: replicate.StatusSucceeded, Output: []string{"https://cdn.example/result.png"}},
		},
	}
	ledger := entitledLedger()
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, ledger, recorder, 10).Submit(context.Background(), validRequest())

	require.True(t, outcome.OK)
	assert.Equal(t, "https://cdn.example/result.png", outcome.ResultURL)
	assert.NotEmpty(t, outcome.UUID)
	assert.Equal(t, 1, ledger.debitCalls)
	assert.Equal(t, 2, provider.pollCalls)
	assert.Equal(t, 0, provider.cancelCalls)
	assert.Equal(t, models.GenerationStatusSucceeded, recorder.created.Status)
	assert.Equal(t, 2, recorder.created.AttemptsMade)
	assert.NotNil(t, recorder.created.SubmittedAt)
	assert.NotNil(t, recorder.created.CompletedAt)
	assert.Equal(t, []string{
		models.GenerationStatusValidating,
		models.GenerationStatusSubmitted,
		models.GenerationStatusPolling,
		models.GenerationStatusSucceeded,
	}, recorder.statuses)
}

func TestSubmit_PreassignedUUID(t *testing.T) {
	provider := &fakeProvider{
		createResp: &replicate.Prediction{ID: "pred-1"},
		pollResps:  []*replicate.Prediction{{Status: replicate.StatusSucceeded, Output: []string{"u"}}},
	}
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, entitledLedger(), recorder, 10).
		Submit(context.Background(), Request{
			UUID:     "11111111-2222-3333-4444-555555555555",
			UserID:   1,
			Image:    []byte("x"),
			MimeType: "image/png",
			Style:    StyleCV,
		})

	require.True(t, outcome.OK)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", outcome.UUID)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", recorder.created.UUID)
}

func TestSubmit_InvalidImageRejected(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Request)
		wantKind ErrorKind
	}{
		{
			name:     "Unsupported type",
			mutate:   func(r *Request) { r.MimeType = "image/gif" },
			wantKind: ErrInvalidInput,
		},
		{
			name:     "Missing type",
			mutate:   func(r *Request) { r.MimeType = "" },
			wantKind: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			ledger := entitledLedger()
			recorder := &fakeRecorder{}
			req := validRequest()
			tt.mutate(&req)

			outcome := newTestOrchestrator(provider, ledger, recorder, 10).Submit(context.Background(), req)

			require.False(t, outcome.OK)
			assert.Equal(t, tt.wantKind, outcome.ErrorKind)
			assert.Equal(t, models.GenerationStatusRejected, recorder.created.Status)
			// A rejected request never reaches the provider or the ledger.
			assert.Equal(t, 0, provider.createCalls)
			assert.Equal(t, 0, ledger.debitCalls)
		})
	}
}

func TestSubmit_EntitlementDenials(t *testing.T) {
	earlierToday := time.Now().Add(-time.Hour)

	tests := []struct {
		name     string
		ent      entitlements.Entitlement
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name:     "No credits",
			ent:      entitlements.Entitlement{CreditsRemaining: 0, Tier: entitlements.TierFree},
			wantKind: ErrNoCredits,
			wantMsg:  "No credits remaining",
		},
		{
			name: "Daily limit reached",
			ent: entitlements.Entitlement{
				CreditsRemaining:     3,
				DailyGenerationsUsed: 1,
				LastGenerationDate:   &earlierToday,
				Tier:                 entitlements.TierFree,
			},
			wantKind: ErrDailyLimitReached,
			wantMsg:  "Daily generation limit reached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			ledger := &fakeLedger{ent: tt.ent}
			recorder := &fakeRecorder{}

			outcome := newTestOrchestrator(provider, ledger, recorder, 10).Submit(context.Background(), validRequest())

			require.False(t, outcome.OK)
			assert.Equal(t, tt.wantKind, outcome.ErrorKind)
			assert.Equal(t, tt.wantMsg, outcome.ErrorMessage)
			assert.Equal(t, models.GenerationStatusRejected, recorder.created.Status)
			assert.Equal(t, 0, provider.createCalls)
			assert.Equal(t, 0, ledger.debitCalls)
		})
	}
}

func TestSubmit_ProviderRejectsCreate(t *testing.T) {
	provider := &fakeProvider{
		createErr: &replicate.ProviderError{StatusCode: 422, Body: "input image could not be decoded"},
	}
	ledger := entitledLedger()
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, ledger, recorder, 10).Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrProviderRejected, outcome.ErrorKind)
	assert.Equal(t, "input image could not be decoded", outcome.ErrorMessage)
	assert.Equal(t, models.GenerationStatusFailed, recorder.created.Status)
	// No debit for a submission the provider never accepted.
	assert.Equal(t, 0, ledger.debitCalls)
}

func TestSubmit_MissingPredictionID(t *testing.T) {
	provider := &fakeProvider{createResp: &replicate.Prediction{ID: ""}}
	ledger := entitledLedger()
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, ledger, recorder, 10).Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrProviderRejected, outcome.ErrorKind)
	assert.Equal(t, 0, ledger.debitCalls)
}

func TestSubmit_DebitRaceLost(t *testing.T) {
	provider := &fakeProvider{createResp: &replicate.Prediction{ID: "pred-1"}}
	ledger := &fakeLedger{
		ent:     entitlements.Entitlement{CreditsRemaining: 1, Tier: entitlements.TierFree},
		debited: false, // a concurrent request consumed the last credit
	}
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, ledger, recorder, 10).Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrNoCredits, outcome.ErrorKind)
	assert.Equal(t, models.GenerationStatusFailed, recorder.created.Status)
	assert.Equal(t, 1, provider.cancelCalls)
	assert.Equal(t, 0, provider.pollCalls)
}

func TestSubmit_DebitError(t *testing.T) {
	provider := &fakeProvider{createResp: &replicate.Prediction{ID: "pred-1"}}
	ledger := &fakeLedger{
		ent:      entitlements.Entitlement{CreditsRemaining: 1, Tier: entitlements.TierFree},
		debitErr: errors.New("connection reset"),
	}
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, ledger, recorder, 10).Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrProviderFailed, outcome.ErrorKind)
	assert.Equal(t, 1, provider.cancelCalls)
}

func TestSubmit_SucceededWithoutOutput(t *testing.T) {
	provider := &fakeProvider{
		createResp: &replicate.Prediction{ID: "pred-1"},
		pollResps:  []*replicate.Prediction{{Status: replicate.StatusSucceeded}},
	}
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, entitledLedger(), recorder, 10).Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrProviderFailed, outcome.ErrorKind)
	assert.Equal(t, "no image generated", outcome.ErrorMessage)
	assert.Equal(t, models.GenerationStatusFailed, recorder.created.Status)
}

func TestSubmit_PredictionFailed(t *testing.T) {
	provider := &fakeProvider{
		createResp: &replicate.Prediction{ID: "pred-1"},
		pollResps:  []*replicate.Prediction{{Status: replicate.StatusFailed, Error: "NSFW content detected"}},
	}
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, entitledLedger(), recorder, 10).Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrProviderFailed, outcome.ErrorKind)
	assert.Equal(t, "NSFW content detected", outcome.ErrorMessage)
}

func TestSubmit_PollErrorIsHardFailure(t *testing.T) {
	provider := &fakeProvider{
		createResp: &replicate.Prediction{ID: "pred-1"},
		pollErr:    errors.New("dial tcp: connection refused"),
	}
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, entitledLedger(), recorder, 10).Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrProviderFailed, outcome.ErrorKind)
	// One failed poll ends the loop; attempts are not exhausted.
	assert.Equal(t, 1, provider.pollCalls)
	assert.Equal(t, models.GenerationStatusFailed, recorder.created.Status)
}

func TestSubmit_SuccessOnLastAttempt(t *testing.T) {
	processing := &replicate.Prediction{ID: "pred-1", Status: replicate.StatusProcessing}
	provider := &fakeProvider{
		createResp: &replicate.Prediction{ID: "pred-1"},
		pollResps: []*replicate.Prediction{
			processing, processing,
			{ID: "pred-1", Status: replicate.StatusSucceeded, Output: []string{"https://cdn.example/r.png"}},
		},
	}
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, entitledLedger(), recorder, 3).Submit(context.Background(), validRequest())

	require.True(t, outcome.OK)
	assert.Equal(t, 3, provider.pollCalls)
	assert.Equal(t, 3, recorder.created.AttemptsMade)
}

func TestSubmit_PollingExhaustedTimesOut(t *testing.T) {
	provider := &fakeProvider{
		createResp: &replicate.Prediction{ID: "pred-1"},
		pollResps:  []*replicate.Prediction{{ID: "pred-1", Status: replicate.StatusProcessing}},
	}
	recorder := &fakeRecorder{}

	outcome := newTestOrchestrator(provider, entitledLedger(), recorder, 3).Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrTimedOut, outcome.ErrorKind)
	assert.Equal(t, "Generation timed out", outcome.ErrorMessage)
	assert.Equal(t, 3, provider.pollCalls)
	assert.Equal(t, 1, provider.cancelCalls)
	assert.Equal(t, models.GenerationStatusTimedOut, recorder.created.Status)
	assert.Equal(t, 3, recorder.created.AttemptsMade)
}

func TestSubmit_ContextCanceledDuringPolling(t *testing.T) {
	provider := &fakeProvider{
		createResp: &replicate.Prediction{ID: "pred-1"},
		pollResps:  []*replicate.Prediction{{ID: "pred-1", Status: replicate.StatusProcessing}},
	}
	recorder := &fakeRecorder{}

	o := NewOrchestrator(provider, entitledLedger(), recorder,
		WithPolling(time.Millisecond, 10),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		}),
	)
	outcome := o.Submit(context.Background(), validRequest())

	require.False(t, outcome.OK)
	assert.Equal(t, ErrTimedOut, outcome.ErrorKind)
	assert.Equal(t, "Generation canceled", outcome.ErrorMessage)
	assert.Equal(t, 0, provider.pollCalls)
	assert.Equal(t, 1, provider.cancelCalls)
	assert.Equal(t, models.GenerationStatusTimedOut, recorder.created.Status)
}

func TestFinalize_TerminalStateIsImmutable(t *testing.T) {
	recorder := &fakeRecorder{}
	o := NewOrchestrator(&fakeProvider{}, entitledLedger(), recorder)

	g := &models.Generation{
		UUID:   "done-already",
		Status: models.GenerationStatusSucceeded,
	}
	o.finalize(g, failure(g.UUID, ErrTimedOut, "late finalize"), models.GenerationStatusTimedOut)

	assert.Equal(t, models.GenerationStatusSucceeded, g.Status)
	assert.Empty(t, g.ErrorKind)
	assert.Empty(t, recorder.statuses)
}

func TestImageDataURL(t *testing.T) {
	url := imageDataURL("image/png", []byte{0x89, 0x50})
	assert.Equal(t, "data:image/png;base64,iVA=", url)
}
