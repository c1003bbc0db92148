package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nsets/erp-backend/pkg/db/models"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
)

const (
	defaultBufferSize = 256
	writeTimeout      = 5 * time.Second
)

// Mirror receives a copy of every persisted entry, e.g. a Pub/Sub topic.
type Mirror interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

type RecorderParams struct {
	Repository Repository
	Logger     *logger.Logger
	Mirror     Mirror
	BufferSize int
}

// AsyncRecorder queues entries on a bounded channel drained by one worker
// goroutine. A full queue drops the entry with a warning.
type AsyncRecorder struct {
	repo   Repository
	logg   *logger.Logger
	mirror Mirror
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan models.ActivityLog
	done   chan struct{}
}

func NewRecorder(params RecorderParams) (*AsyncRecorder, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	size := params.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}

	r := &AsyncRecorder{
		repo:   params.Repository,
		logg:   params.Logger,
		mirror: params.Mirror,
		now:    time.Now,
		queue:  make(chan models.ActivityLog, size),
		done:   make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// Record enqueues entry without blocking.
func (r *AsyncRecorder) Record(entry Entry) {
	row := entry.toModel()
	row.CreatedAt = r.now().UTC()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logg.Warn(r.entryContext(row), "activity.recorder_closed")
		return
	}

	select {
	case r.queue <- row:
	default:
		r.logg.Warn(r.entryContext(row), "activity.dropped_queue_full")
	}
}

// Close stops accepting entries and waits for the queue to drain or ctx to end.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining activity queue: %w", ctx.Err())
	}
}

func (r *AsyncRecorder) run() {
	defer close(r.done)
	for row := range r.queue {
		r.write(row)
	}
}

func (r *AsyncRecorder) write(row models.ActivityLog) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, &row); err != nil {
		r.logg.Error(r.entryContext(row), "activity.persist_failed", err)
		return
	}

	if r.mirror == nil {
		return
	}
	payload, err := json.Marshal(row)
	if err != nil {
		r.logg.Error(r.entryContext(row), "activity.encode_failed", err)
		return
	}
	attrs := map[string]string{
		"action":      string(row.Action),
		"entity_type": string(row.EntityType),
		"user_id":     strconv.FormatInt(row.UserID, 10),
	}
	if err := r.mirror.Publish(ctx, payload, attrs); err != nil {
		r.logg.Error(r.entryContext(row), "activity.mirror_failed", err)
	}
}

func (r *AsyncRecorder) entryContext(row models.ActivityLog) context.Context {
	return r.logg.WithFields(context.Background(), map[string]any{
		"action":      row.Action,
		"entity_type": row.EntityType,
		"user_id":     row.UserID,
	})
}
