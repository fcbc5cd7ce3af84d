package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/pkg/logger"
)

const pollerModule = "DocumentPoller"

// DocumentUpdate is one poll result. Err is set when the fetch failed; Docs
// then holds the last good list.
type DocumentUpdate struct {
	Docs  []entity.Document
	Stats entity.DocumentStats
	Err   error
}

// DocumentPoller refreshes the document list while anything is pending.
// It fetches once on Start, then once per interval, and returns on its own
// as soon as a fetch shows nothing pending.
type DocumentPoller struct {
	documents IDocumentService
	page      dto.PageQuery
	interval  time.Duration
	onUpdate  func(DocumentUpdate)
	logger    logger.ILogger

	mu     sync.Mutex
	docs   []entity.Document
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDocumentPoller(documents IDocumentService, page dto.PageQuery, interval time.Duration, onUpdate func(DocumentUpdate), log logger.ILogger) *DocumentPoller {
	return &DocumentPoller{
		documents: documents,
		page:      page,
		interval:  interval,
		onUpdate:  onUpdate,
		logger:    log,
	}
}

// Start launches the poll loop unless one is already running. It returns
// the channel closed when that loop exits.
func (p *DocumentPoller) Start(ctx context.Context) <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		select {
		case <-p.done:
		default:
			return p.done
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(loopCtx, done)
	return done
}

// Stop cancels the loop and waits for it to exit. Safe to call at any time.
func (p *DocumentPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *DocumentPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *DocumentPoller) Snapshot() []entity.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.Document(nil), p.docs...)
}

func (p *DocumentPoller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	if !p.fetch(ctx) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.fetch(ctx) {
				p.logger.Debug(pollerModule, "Nothing pending, polling stopped", nil)
				return
			}
		}
	}
}

// fetch loads one page and reports whether another poll is needed. A failed
// fetch keeps polling if the last good list still had pending items.
func (p *DocumentPoller) fetch(ctx context.Context) bool {
	docs, err := p.documents.List(ctx, p.page)
	if ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	if err == nil {
		p.docs = docs
	}
	current := append([]entity.Document(nil), p.docs...)
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn(pollerModule, "Document poll failed", map[string]interface{}{"error": err.Error()})
	}
	if p.onUpdate != nil {
		p.onUpdate(DocumentUpdate{Docs: current, Stats: DocumentStatsOf(current), Err: err})
	}
	if errors.Is(err, httpclient.ErrSessionExpired) || errors.Is(err, httpclient.ErrForbidden) {
		return false
	}
	return anyPending(current)
}
