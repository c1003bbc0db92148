package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerIssueAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	sess, err := manager.Issue(ctx, 9)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	stored := store.data[store.AccessSessionKey(sess.AccessID)]
	if stored == "" {
		t.Fatal("expected session stored")
	}
	if strings.Contains(stored, sess.RefreshToken) {
		t.Fatal("raw refresh token must not be stored")
	}

	if _, err := manager.Rotate(ctx, sess.AccessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	next, err := manager.Rotate(ctx, sess.AccessID, sess.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if next.UserID != 9 {
		t.Fatalf("expected user 9, got %d", next.UserID)
	}
	if next.AccessID == sess.AccessID || next.RefreshToken == sess.RefreshToken {
		t.Fatal("expected fresh identifiers after rotation")
	}
	if _, exists := store.data[store.AccessSessionKey(sess.AccessID)]; exists {
		t.Fatal("old access key left behind")
	}

	if _, err := manager.Rotate(ctx, sess.AccessID, sess.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected replayed token rejected, got %v", err)
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	sess, err := manager.Issue(ctx, 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ok, err := manager.HasSession(ctx, sess.AccessID)
	if err != nil || !ok {
		t.Fatalf("expected live session, got %v %v", ok, err)
	}
	if err := manager.Revoke(ctx, sess.AccessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, sess.AccessID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, got %v %v", ok, err)
	}
}

func TestManagerIssueRequiresUser(t *testing.T) {
	manager, _ := newTestManager()
	if _, err := manager.Issue(context.Background(), 0); err == nil {
		t.Fatal("expected error for missing user")
	}
}
