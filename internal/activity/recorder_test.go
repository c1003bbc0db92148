package activity

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	rows    []models.ActivityLog
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, *entry)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, int64(len(f.rows)), nil
}

func (f *fakeRepo) snapshot() []models.ActivityLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ActivityLog(nil), f.rows...)
}

type fakeMirror struct {
	mu    sync.Mutex
	calls []map[string]string
	err   error
}

func (m *fakeMirror) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, attrs)
	return m.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func closeRecorder(t *testing.T, r *AsyncRecorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))
}

func TestRecorderPersistsAndMirrors(t *testing.T) {
	repo := &fakeRepo{}
	mirror := &fakeMirror{}
	rec, err := NewRecorder(RecorderParams{Repository: repo, Logger: testLogger(), Mirror: mirror})
	require.NoError(t, err)

	actor := &access.Actor{UserID: 3, Username: "clerk", IPAddress: "10.0.0.1"}
	rec.Record(Entry{Actor: actor, Action: enums.ActivityActionCreate, EntityType: enums.EntityTypeQuery, EntityID: 12, EntityName: "Query 12"})
	closeRecorder(t, rec)

	rows := repo.snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].UserID)
	assert.Equal(t, "clerk", rows[0].Username)
	require.NotNil(t, rows[0].EntityID)
	assert.Equal(t, int64(12), *rows[0].EntityID)
	assert.Nil(t, rows[0].FilePath)
	assert.Equal(t, "10.0.0.1", *rows[0].IPAddress)

	require.Len(t, mirror.calls, 1)
	assert.Equal(t, "create", mirror.calls[0]["action"])
	assert.Equal(t, "3", mirror.calls[0]["user_id"])
}

func TestRecorderSwallowsStoreErrors(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk full")}
	mirror := &fakeMirror{}
	rec, err := NewRecorder(RecorderParams{Repository: repo, Logger: testLogger(), Mirror: mirror})
	require.NoError(t, err)

	rec.Record(Entry{Action: enums.ActivityActionDelete, EntityType: enums.EntityTypeInvoice})
	closeRecorder(t, rec)

	assert.Empty(t, repo.snapshot())
	assert.Empty(t, mirror.calls, "failed writes are not mirrored")
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	repo := &fakeRepo{entered: make(chan struct{}), release: make(chan struct{})}
	rec, err := NewRecorder(RecorderParams{Repository: repo, Logger: testLogger(), BufferSize: 1})
	require.NoError(t, err)

	rec.Record(Entry{Action: enums.ActivityActionCreate, EntityType: enums.EntityTypeQuery, EntityID: 1})
	<-repo.entered // worker is now blocked inside Create

	rec.Record(Entry{Action: enums.ActivityActionCreate, EntityType: enums.EntityTypeQuery, EntityID: 2})
	rec.Record(Entry{Action: enums.ActivityActionCreate, EntityType: enums.EntityTypeQuery, EntityID: 3})

	go func() {
		for range repo.entered {
		}
	}()
	close(repo.release)
	closeRecorder(t, rec)
	close(repo.entered)

	rows := repo.snapshot()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), *rows[0].EntityID)
	assert.Equal(t, int64(2), *rows[1].EntityID)
}

func TestRecordAfterCloseIsIgnored(t *testing.T) {
	repo := &fakeRepo{}
	rec, err := NewRecorder(RecorderParams{Repository: repo, Logger: testLogger()})
	require.NoError(t, err)
	closeRecorder(t, rec)

	assert.NotPanics(t, func() {
		rec.Record(Entry{Action: enums.ActivityActionLogin, EntityType: enums.EntityTypeUser})
	})
	assert.Empty(t, repo.snapshot())
	require.NoError(t, rec.Close(context.Background()))
}

func TestNewRecorderRequiresDependencies(t *testing.T) {
	_, err := NewRecorder(RecorderParams{Logger: testLogger()})
	assert.Error(t, err)
	_, err = NewRecorder(RecorderParams{Repository: &fakeRepo{}})
	assert.Error(t, err)
}
