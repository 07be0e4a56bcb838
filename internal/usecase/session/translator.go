package session

import (
	"context"
	"errors"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/meetscribe/internal/domain/repositories"
)

// errTranslationTimeout marks a request that exceeded the soft timeout. The
// provider call keeps running; a late success is still applied.
var errTranslationTimeout = errors.New("translation timed out")

// hardTranslationDeadline bounds how long an in-flight provider call may
// run in total, soft timeout included.
const hardTranslationDeadline = 2 * time.Minute

// pendingTranslation is the in-memory correlation record for one in-flight
// translation request.
type pendingTranslation struct {
	segmentID   uuid.UUID
	requestedAt time.Time
	sourceText  string
	timer       *time.Timer
}

// translationSink receives correlated translation completion events. The
// owning session is the single registered sink; delivery returns false once
// the session's event loop has terminated.
type translationSink interface {
	deliver(ev event) bool
}

// TranslationCoordinator dispatches asynchronous translation requests keyed
// by segment id and correlates their completions back to the owning
// session. At most one request is outstanding per segment. Transient
// provider errors get one backoff retry; requests unresolved after the soft
// timeout are reported as failed, but a success arriving later is still
// written to the persisted segment, even after the session has ended.
type TranslationCoordinator struct {
	translator Translator
	segments   repositories.SegmentRepository
	logger     *zap.Logger
	sourceLang string
	timeout    time.Duration

	mu       sync.Mutex
	sink     translationSink
	pending  map[uuid.UUID]*pendingTranslation
	resolved map[uuid.UUID]bool
	detached bool
}

// NewTranslationCoordinator creates a coordinator for one session
func NewTranslationCoordinator(
	translator Translator,
	segments repositories.SegmentRepository,
	sourceLang string,
	timeout time.Duration,
	logger *zap.Logger,
) *TranslationCoordinator {
	return &TranslationCoordinator{
		translator: translator,
		segments:   segments,
		sourceLang: sourceLang,
		timeout:    timeout,
		logger:     logger,
		pending:    make(map[uuid.UUID]*pendingTranslation),
		resolved:   make(map[uuid.UUID]bool),
	}
}

// Bind registers the owning session as the completion sink
func (c *TranslationCoordinator) Bind(sink translationSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Submit dispatches a translation request without blocking the caller.
// A duplicate submit for a segment already pending or resolved is a no-op.
func (c *TranslationCoordinator) Submit(segmentID uuid.UUID, sourceText string) {
	c.mu.Lock()
	if c.detached || c.resolved[segmentID] {
		c.mu.Unlock()
		return
	}
	if _, exists := c.pending[segmentID]; exists {
		c.mu.Unlock()
		return
	}

	p := &pendingTranslation{
		segmentID:   segmentID,
		requestedAt: time.Now(),
		sourceText:  sourceText,
	}
	p.timer = time.AfterFunc(c.timeout, func() {
		c.reportTimeout(segmentID)
	})
	c.pending[segmentID] = p
	c.mu.Unlock()

	go c.run(p)
}

// PendingCount reports the number of in-flight requests
func (c *TranslationCoordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Detach clears bookkeeping when the owning session terminates. Requests
// already in flight run to completion and still update the persisted
// segment, but no longer produce a client push.
func (c *TranslationCoordinator) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
	for id, p := range c.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(c.pending, id)
	}
}

// run executes one translation request, with one retry on transient errors
func (c *TranslationCoordinator) run(p *pendingTranslation) {
	ctx, cancel := context.WithTimeout(context.Background(), hardTranslationDeadline)
	defer cancel()

	translation, err := c.translateWithRetry(ctx, p.sourceText)
	if err != nil {
		c.reportFailure(p.segmentID, err)
		return
	}

	c.applyResolution(p.segmentID, translation)
}

func (c *TranslationCoordinator) translateWithRetry(ctx context.Context, text string) (string, error) {
	var translation string

	op := func() error {
		out, err := c.translator.TranslateText(ctx, text, c.sourceLang)
		if err != nil {
			if !isTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		translation = out
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 1), ctx)); err != nil {
		return "", err
	}
	return translation, nil
}

// applyResolution records a completed translation at most once. The write
// to the store happens here, on the provider goroutine, so a resolution
// can never be lost to the session loop shutting down underneath it; the
// session is then notified only for the client-facing push.
func (c *TranslationCoordinator) applyResolution(segmentID uuid.UUID, translation string) {
	c.mu.Lock()
	if c.resolved[segmentID] {
		c.mu.Unlock()
		return
	}
	c.resolved[segmentID] = true
	if p, ok := c.pending[segmentID]; ok {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(c.pending, segmentID)
	}
	sink := c.sink
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.segments.UpdateTranslation(ctx, segmentID, translation); err != nil {
		if c.logger != nil {
			c.logger.Error("failed to persist translation",
				zap.String("segment_id", segmentID.String()),
				zap.Error(err),
			)
		}
		return
	}

	if sink == nil || !sink.deliver(translationResolvedEvent{segmentID: segmentID, translation: translation}) {
		if c.logger != nil {
			c.logger.Info("applied late translation after session end",
				zap.String("segment_id", segmentID.String()),
			)
		}
	}
}

// reportTimeout marks a request as failed for placeholder purposes while
// leaving the provider call running.
func (c *TranslationCoordinator) reportTimeout(segmentID uuid.UUID) {
	c.mu.Lock()
	if c.resolved[segmentID] {
		c.mu.Unlock()
		return
	}
	sink := c.sink
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Warn("translation request timed out",
			zap.String("segment_id", segmentID.String()),
			zap.Duration("timeout", c.timeout),
		)
	}
	if sink != nil {
		sink.deliver(translationFailedEvent{segmentID: segmentID, reason: errTranslationTimeout})
	}
}

// reportFailure records a terminal failure; the placeholder stays in place
func (c *TranslationCoordinator) reportFailure(segmentID uuid.UUID, err error) {
	c.mu.Lock()
	if p, ok := c.pending[segmentID]; ok {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(c.pending, segmentID)
	}
	sink := c.sink
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Warn("translation failed",
			zap.String("segment_id", segmentID.String()),
			zap.Error(err),
		)
	}
	if sink != nil {
		sink.deliver(translationFailedEvent{segmentID: segmentID, reason: err})
	}
}

// isTransient reports whether a provider error is worth one retry
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}
