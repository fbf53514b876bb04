package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
	"github.com/MitaksharaYadav/NetraAI/internal/events"
	"github.com/MitaksharaYadav/NetraAI/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// User-facing error message keys (see i18n locales).
const (
	ErrorKeyScan           = "scanError"
	ErrorKeySampleDisabled = "sampleDisabled"
	ErrorKeyScanInFlight   = "scanInFlight"
)

const publishTimeout = 5 * time.Second

var (
	// ErrScanInFlight a second submission for a session whose scan is still running.
	ErrScanInFlight = errors.New("scan already in flight")
	ErrEmptyUpload  = errors.New("empty upload")
)

// Upload one submitted image.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ScanService per-session scan flow.
type ScanService interface {
	// State current state; Idle for sessions that never scanned.
	State(ctx context.Context, sessionID string) (domain.ScanState, error)

	// Submit runs the whole submission and returns the final state.
	Submit(ctx context.Context, sessionID string, upload Upload) (domain.ScanState, error)

	// Start moves the session to Scanning and analyzes in the background.
	Start(ctx context.Context, sessionID string, upload Upload) (domain.ScanState, error)

	// Sample the disabled sample action; never calls the backend.
	Sample(ctx context.Context, sessionID string) (domain.ScanState, error)

	// Wait blocks until background scans finish or ctx is done.
	Wait(ctx context.Context) error
}

// ScanServiceOptions tuning knobs; zero values take defaults.
type ScanServiceOptions struct {
	StateTTL time.Duration
	LockTTL  time.Duration
	Now      func() time.Time
}

type scanService struct {
	kv        store.KV
	inference InferenceClient
	publisher events.Publisher
	logger    *zap.Logger

	stateTTL time.Duration
	lockTTL  time.Duration
	now      func() time.Time

	wg sync.WaitGroup
}

// NewScanService creates the scan flow service.
func NewScanService(
	kv store.KV,
	inference InferenceClient,
	publisher events.Publisher,
	logger *zap.Logger,
	opts ScanServiceOptions,
) ScanService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if opts.StateTTL <= 0 {
		opts.StateTTL = 30 * time.Minute
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &scanService{
		kv:        kv,
		inference: inference,
		publisher: publisher,
		logger:    logger,
		stateTTL:  opts.StateTTL,
		lockTTL:   opts.LockTTL,
		now:       opts.Now,
	}
}

func stateKey(sessionID string) string { return "scan:state:" + sessionID }
func lockKey(sessionID string) string  { return "scan:lock:" + sessionID }

func (s *scanService) State(ctx context.Context, sessionID string) (domain.ScanState, error) {
	raw, err := s.kv.Get(ctx, stateKey(sessionID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return domain.ScanState{Phase: domain.ScanIdle}, nil
		}
		return domain.ScanState{}, fmt.Errorf("failed to load scan state: %w", err)
	}
	var st domain.ScanState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.Warn("Discarding unreadable scan state",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return domain.ScanState{Phase: domain.ScanIdle}, nil
	}
	if st.Phase == domain.ScanScanning {
		return s.checkScanning(ctx, sessionID, st)
	}
	return st, nil
}

// checkScanning a Scanning state is live only while its scan holds the
// session lock. Otherwise the run died (lock expired or process restart)
// and the state reads as failed.
func (s *scanService) checkScanning(ctx context.Context, sessionID string, st domain.ScanState) (domain.ScanState, error) {
	owner, err := s.kv.Get(ctx, lockKey(sessionID))
	switch {
	case err == nil && owner == st.ScanID:
		return st, nil
	case err != nil && !errors.Is(err, store.ErrMiss):
		return domain.ScanState{}, fmt.Errorf("failed to load scan lock: %w", err)
	}

	s.logger.Warn("Scanning state has no live scan",
		zap.String("session_id", sessionID),
		zap.String("scan_id", st.ScanID),
	)
	failed, err := st.Fail(ErrorKeyScan, s.now())
	if err != nil {
		return domain.ScanState{}, err
	}
	return failed, nil
}

func (s *scanService) saveState(ctx context.Context, sessionID string, st domain.ScanState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal scan state: %w", err)
	}
	if err := s.kv.Set(ctx, stateKey(sessionID), string(b), s.stateTTL); err != nil {
		return fmt.Errorf("failed to save scan state: %w", err)
	}
	return nil
}

func (s *scanService) Submit(ctx context.Context, sessionID string, upload Upload) (domain.ScanState, error) {
	st, err := s.begin(ctx, sessionID, upload)
	if err != nil {
		return st, err
	}
	return s.run(ctx, sessionID, st, upload), nil
}

func (s *scanService) Start(ctx context.Context, sessionID string, upload Upload) (domain.ScanState, error) {
	st, err := s.begin(ctx, sessionID, upload)
	if err != nil {
		return st, err
	}

	// The request context ends with the redirect; the scan must outlive it.
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(bg, sessionID, st, upload)
	}()
	return st, nil
}

func (s *scanService) Sample(ctx context.Context, sessionID string) (domain.ScanState, error) {
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return st, err
	}
	next, err := st.Sample(ErrorKeySampleDisabled, s.now())
	if err != nil {
		var te *domain.InvalidTransitionError
		if errors.As(err, &te) {
			return st, ErrScanInFlight
		}
		return st, err
	}
	if err := s.saveState(ctx, sessionID, next); err != nil {
		return st, err
	}
	return next, nil
}

func (s *scanService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin takes the session lock and stores the Scanning state.
// The lock is released by run, or here when begin itself fails.
func (s *scanService) begin(ctx context.Context, sessionID string, upload Upload) (domain.ScanState, error) {
	if len(upload.Data) == 0 {
		return domain.ScanState{}, ErrEmptyUpload
	}

	scanID := uuid.New().String()
	ok, err := s.kv.SetNX(ctx, lockKey(sessionID), scanID, s.lockTTL)
	if err != nil {
		return domain.ScanState{}, fmt.Errorf("failed to acquire scan lock: %w", err)
	}
	if !ok {
		return domain.ScanState{}, ErrScanInFlight
	}

	// The lock now holds scanID, so a leftover Scanning state reads as failed.
	st, err := s.State(ctx, sessionID)
	if err != nil {
		s.releaseLock(ctx, sessionID, scanID)
		return st, err
	}

	next, err := st.Begin(scanID, upload.FileName, previewDataURL(upload), s.now())
	if err != nil {
		s.releaseLock(ctx, sessionID, scanID)
		return st, err
	}
	if err := s.saveState(ctx, sessionID, next); err != nil {
		s.releaseLock(ctx, sessionID, scanID)
		return st, err
	}

	s.logger.Info("Scan started",
		zap.String("session_id", sessionID),
		zap.String("scan_id", scanID),
		zap.String("file_name", upload.FileName),
	)
	return next, nil
}

// run calls the backend and stores the outcome. Scanning always ends here.
func (s *scanService) run(ctx context.Context, sessionID string, st domain.ScanState, upload Upload) domain.ScanState {
	// Bookkeeping still happens when the caller gave up on the analysis.
	persistCtx := context.WithoutCancel(ctx)
	defer s.releaseLock(persistCtx, sessionID, st.ScanID)

	var (
		next domain.ScanState
		ev   events.ScanEvent
	)

	result, err := s.inference.Analyze(ctx, upload.FileName, upload.Data)
	now := s.now()
	if err != nil {
		s.logger.Error("Scan failed",
			zap.String("session_id", sessionID),
			zap.String("scan_id", st.ScanID),
			zap.String("error_class", errorClass(err)),
			zap.Error(err),
		)
		next, err = st.Fail(ErrorKeyScan, now)
		ev = events.NewScanFailed(sessionID, st.ScanID, st.FileName, ErrorKeyScan, now)
	} else {
		s.logger.Info("Scan completed",
			zap.String("session_id", sessionID),
			zap.String("scan_id", st.ScanID),
			zap.String("condition", result.Condition),
			zap.Int("severity", result.Severity),
		)
		next, err = st.Succeed(*result, now)
		ev = events.NewScanCompleted(sessionID, st.ScanID, st.FileName, result, now)
	}
	if err != nil {
		// Scanning is left in place; State reports it failed once the lock is gone.
		s.logger.Error("Invalid scan transition",
			zap.String("session_id", sessionID),
			zap.String("scan_id", st.ScanID),
			zap.Error(err),
		)
	}

	if err := s.saveState(persistCtx, sessionID, next); err != nil {
		s.logger.Error("Failed to persist scan outcome",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	pubCtx, cancel := context.WithTimeout(persistCtx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, ev); err != nil {
		s.logger.Warn("Failed to publish scan event",
			zap.String("event_type", ev.Type),
			zap.String("scan_id", ev.ScanID),
			zap.Error(err),
		)
	}
	return next
}

// releaseLock deletes the session lock only while scanID still owns it.
func (s *scanService) releaseLock(ctx context.Context, sessionID, scanID string) {
	released, err := s.kv.DelIfEqual(ctx, lockKey(sessionID), scanID)
	if err != nil {
		s.logger.Warn("Failed to release scan lock",
			zap.String("session_id", sessionID),
			zap.String("scan_id", scanID),
			zap.Error(err),
		)
		return
	}
	if !released {
		s.logger.Warn("Scan lock was no longer held",
			zap.String("session_id", sessionID),
			zap.String("scan_id", scanID),
		)
	}
}

// previewDataURL inline image for immediate display next to the result.
func previewDataURL(upload Upload) string {
	ct := upload.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(upload.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(upload.Data)
}
