package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
	"github.com/MitaksharaYadav/NetraAI/internal/events"
	"github.com/MitaksharaYadav/NetraAI/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubInference struct {
	mu      sync.Mutex
	calls   int
	result  *domain.DiagnosticResult
	err     error
	release chan struct{} // when set, Analyze blocks until closed
}

func (s *stubInference) Analyze(ctx context.Context, _ string, _ []byte) (*domain.DiagnosticResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func (s *stubInference) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.ScanEvent
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, ev events.ScanEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return c.err
}

func (c *capturePublisher) Close() error { return nil }

func (c *capturePublisher) Events() []events.ScanEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.ScanEvent(nil), c.events...)
}

var fixedNow = time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)

func newTestScanService(inf InferenceClient, pub events.Publisher) (ScanService, *store.MemoryKV) {
	kv := store.NewMemoryKV()
	svc := NewScanService(kv, inf, pub, zap.NewNop(), ScanServiceOptions{
		Now: func() time.Time { return fixedNow },
	})
	return svc, kv
}

func pngUpload() Upload {
	return Upload{FileName: "eye.png", Data: []byte("\x89PNG\r\n\x1a\n0000")}
}

func TestScanService_StateDefaultsToIdle(t *testing.T) {
	svc, _ := newTestScanService(&stubInference{}, nil)

	st, err := svc.State(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanIdle, st.Phase)
	assert.Nil(t, st.Result)
}

func TestScanService_SubmitSuccess(t *testing.T) {
	inf := &stubInference{result: &domain.DiagnosticResult{
		Condition: "Mild DR", Severity: 1, Confidence: 84.1, Regions: []string{"Retinal Vessels"},
	}}
	pub := &capturePublisher{}
	svc, kv := newTestScanService(inf, pub)
	ctx := context.Background()

	st, err := svc.Submit(ctx, "sess", pngUpload())
	require.NoError(t, err)
	assert.Equal(t, domain.ScanSucceeded, st.Phase)
	require.NotNil(t, st.Result)
	assert.Equal(t, "Mild DR", st.Result.Condition)
	assert.Empty(t, st.ErrorKey)
	assert.True(t, strings.HasPrefix(st.Preview, "data:image/png;base64,"))

	stored, err := svc.State(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, st.ScanID, stored.ScanID)
	assert.Equal(t, domain.ScanSucceeded, stored.Phase)

	_, err = kv.Get(ctx, "scan:lock:sess")
	assert.ErrorIs(t, err, store.ErrMiss)

	evs := pub.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeScanCompleted, evs[0].Type)
	assert.Equal(t, st.ScanID, evs[0].ScanID)
}

func TestScanService_SubmitBackendError(t *testing.T) {
	srv, _ := newInferenceServer(t, http.StatusInternalServerError, `{}`)
	inf := NewHTTPInferenceClient(srv.URL, 5*time.Second, zap.NewNop())
	pub := &capturePublisher{}
	svc, _ := newTestScanService(inf, pub)

	st, err := svc.Submit(context.Background(), "sess", pngUpload())
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, st.Phase)
	assert.Equal(t, ErrorKeyScan, st.ErrorKey)
	assert.Nil(t, st.Result)

	evs := pub.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeScanFailed, evs[0].Type)
	assert.Equal(t, ErrorKeyScan, evs[0].ErrorKey)
}

func TestScanService_NewSubmissionClearsPreviousResult(t *testing.T) {
	inf := &stubInference{result: &domain.DiagnosticResult{Condition: "Mild DR", Severity: 1, Confidence: 84.1, Regions: []string{}}}
	svc, _ := newTestScanService(inf, nil)
	ctx := context.Background()

	first, err := svc.Submit(ctx, "sess", pngUpload())
	require.NoError(t, err)
	require.NotNil(t, first.Result)

	inf.result = nil
	inf.err = ErrMalformedResponse
	second, err := svc.Submit(ctx, "sess", pngUpload())
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, second.Phase)
	assert.Nil(t, second.Result)
	assert.NotEqual(t, first.ScanID, second.ScanID)
}

func TestScanService_RejectsSecondSubmissionWhileInFlight(t *testing.T) {
	inf := &stubInference{
		result:  &domain.DiagnosticResult{Condition: "Severe DR", Severity: 3, Confidence: 88.5, Regions: []string{}},
		release: make(chan struct{}),
	}
	svc, _ := newTestScanService(inf, nil)
	ctx := context.Background()

	st, err := svc.Start(ctx, "sess", pngUpload())
	require.NoError(t, err)
	assert.Equal(t, domain.ScanScanning, st.Phase)

	_, err = svc.Start(ctx, "sess", pngUpload())
	assert.ErrorIs(t, err, ErrScanInFlight)
	_, err = svc.Submit(ctx, "sess", pngUpload())
	assert.ErrorIs(t, err, ErrScanInFlight)
	_, err = svc.Sample(ctx, "sess")
	assert.ErrorIs(t, err, ErrScanInFlight)

	// Other sessions are unaffected.
	other, err := svc.Sample(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, other.Phase)

	close(inf.release)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(waitCtx))

	final, err := svc.State(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanSucceeded, final.Phase)
	assert.Equal(t, st.ScanID, final.ScanID)
	assert.Equal(t, 1, inf.Calls())

	_, err = svc.Start(ctx, "sess", pngUpload())
	assert.NoError(t, err)
	require.NoError(t, svc.Wait(waitCtx))
}

func TestScanService_SampleMakesNoNetworkCall(t *testing.T) {
	inf := &stubInference{}
	pub := &capturePublisher{}
	svc, _ := newTestScanService(inf, pub)

	st, err := svc.Sample(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, st.Phase)
	assert.Equal(t, ErrorKeySampleDisabled, st.ErrorKey)
	assert.Equal(t, 0, inf.Calls())
	assert.Empty(t, pub.Events())
}

func TestScanService_SampleKeepsEarlierResult(t *testing.T) {
	inf := &stubInference{result: &domain.DiagnosticResult{Condition: "Mild DR", Severity: 1, Confidence: 84.1, Regions: []string{}}}
	svc, _ := newTestScanService(inf, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "sess", pngUpload())
	require.NoError(t, err)

	st, err := svc.Sample(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, ErrorKeySampleDisabled, st.ErrorKey)
	require.NotNil(t, st.Result)
	assert.NotEmpty(t, st.Preview)
}

func TestScanService_EmptyUpload(t *testing.T) {
	inf := &stubInference{}
	svc, kv := newTestScanService(inf, nil)

	_, err := svc.Submit(context.Background(), "sess", Upload{FileName: "empty.jpg"})
	assert.ErrorIs(t, err, ErrEmptyUpload)
	assert.Equal(t, 0, inf.Calls())

	_, err = kv.Get(context.Background(), "scan:lock:sess")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestScanService_StaleScanningStateIsReset(t *testing.T) {
	inf := &stubInference{result: &domain.DiagnosticResult{Condition: "Mild DR", Severity: 1, Confidence: 84.1, Regions: []string{}}}
	svc, kv := newTestScanService(inf, nil)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "scan:state:sess", `{"phase":"scanning","scan_id":"old"}`, 0))

	st, err := svc.Submit(ctx, "sess", pngUpload())
	require.NoError(t, err)
	assert.Equal(t, domain.ScanSucceeded, st.Phase)
	assert.NotEqual(t, "old", st.ScanID)
}

func TestScanService_PublishFailureIsNotSurfaced(t *testing.T) {
	inf := &stubInference{result: &domain.DiagnosticResult{Condition: "Mild DR", Severity: 1, Confidence: 84.1, Regions: []string{}}}
	svc, _ := newTestScanService(inf, &capturePublisher{err: errors.New("broker down")})

	st, err := svc.Submit(context.Background(), "sess", pngUpload())
	require.NoError(t, err)
	assert.Equal(t, domain.ScanSucceeded, st.Phase)
}

func TestScanService_WaitHonorsContext(t *testing.T) {
	inf := &stubInference{
		result:  &domain.DiagnosticResult{Condition: "Mild DR", Severity: 1, Confidence: 84.1, Regions: []string{}},
		release: make(chan struct{}),
	}
	svc, _ := newTestScanService(inf, nil)

	_, err := svc.Start(context.Background(), "sess", pngUpload())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Wait(ctx), context.DeadlineExceeded)

	close(inf.release)
	require.NoError(t, svc.Wait(context.Background()))
}

func TestPreviewDataURL(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,AQID",
		previewDataURL(Upload{ContentType: "image/jpeg", Data: []byte{1, 2, 3}}))
	assert.True(t, strings.HasPrefix(previewDataURL(pngUpload()), "data:image/png;base64,"))
}

func TestScanService_OrphanedScanningStateReadsAsFailed(t *testing.T) {
	inf := &stubInference{}
	svc, kv := newTestScanService(inf, nil)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "scan:state:sess", `{"phase":"scanning","scan_id":"old","file_name":"eye.png"}`, 0))

	st, err := svc.State(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, st.Phase)
	assert.Equal(t, ErrorKeyScan, st.ErrorKey)
	assert.Equal(t, "old", st.ScanID)
	assert.Nil(t, st.Result)

	st, err = svc.Sample(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, st.Phase)
	assert.Equal(t, ErrorKeySampleDisabled, st.ErrorKey)
	assert.Equal(t, 0, inf.Calls())
}

func TestScanService_ScanningStateFollowsLockOwner(t *testing.T) {
	svc, kv := newTestScanService(&stubInference{}, nil)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "scan:state:sess", `{"phase":"scanning","scan_id":"scan-a"}`, 0))

	require.NoError(t, kv.Set(ctx, "scan:lock:sess", "scan-a", time.Minute))
	st, err := svc.State(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanScanning, st.Phase)

	require.NoError(t, kv.Set(ctx, "scan:lock:sess", "scan-b", time.Minute))
	st, err = svc.State(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, st.Phase)

	require.NoError(t, kv.Del(ctx, "scan:lock:sess"))
	require.NoError(t, kv.Set(ctx, "scan:state:sess", `{"phase":"scanning"}`, 0))
	st, err = svc.State(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanFailed, st.Phase)
}

func TestScanService_ReleaseLeavesForeignLock(t *testing.T) {
	inf := &stubInference{
		result:  &domain.DiagnosticResult{Condition: "Mild DR", Severity: 1, Confidence: 84.1, Regions: []string{}},
		release: make(chan struct{}),
	}
	svc, kv := newTestScanService(inf, nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, "sess", pngUpload())
	require.NoError(t, err)

	// The lock expired and another scan took it before this one finished.
	require.NoError(t, kv.Set(ctx, "scan:lock:sess", "scan-other", time.Minute))
	close(inf.release)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(waitCtx))

	owner, err := kv.Get(ctx, "scan:lock:sess")
	require.NoError(t, err)
	assert.Equal(t, "scan-other", owner)
}

func TestScanService_RunLogsInvalidTransition(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	inf := &stubInference{result: &domain.DiagnosticResult{Condition: "Mild DR", Severity: 1, Confidence: 84.1, Regions: []string{}}}
	svc := NewScanService(store.NewMemoryKV(), inf, nil, zap.New(core), ScanServiceOptions{
		Now: func() time.Time { return fixedNow },
	}).(*scanService)

	idle := domain.ScanState{Phase: domain.ScanIdle, ScanID: "scan-x"}
	next := svc.run(context.Background(), "sess", idle, pngUpload())

	assert.Equal(t, domain.ScanIdle, next.Phase)
	entries := logs.FilterMessage("Invalid scan transition").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scan-x", entries[0].ContextMap()["scan_id"])
}
