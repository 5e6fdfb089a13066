package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/checkkeeper/internal/crypto"
	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/storage"
	"github.com/iudanet/checkkeeper/internal/server/storage/boltdb"
)

const (
	testPhone    = "5551234567"
	otherPhone   = "5559876543"
	testPassword = "supersecret1"
)

var errInjected = errors.New("injected storage failure")

// fakeClock is a manually advanced clock
type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// faultyStore wraps a real store and fails selected operations
type faultyStore struct {
	storage.Store
	fail func(op, collection, key string) error
	mu   sync.Mutex
}

func (f *faultyStore) setFail(fn func(op, collection, key string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

func (f *faultyStore) check(op, collection, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		return nil
	}
	return f.fail(op, collection, key)
}

func (f *faultyStore) Create(ctx context.Context, collection, key string, value any) error {
	if err := f.check("create", collection, key); err != nil {
		return err
	}
	return f.Store.Create(ctx, collection, key, value)
}

func (f *faultyStore) Read(ctx context.Context, collection, key string, dst any) error {
	if err := f.check("read", collection, key); err != nil {
		return err
	}
	return f.Store.Read(ctx, collection, key, dst)
}

func (f *faultyStore) Update(ctx context.Context, collection, key string, value any) error {
	if err := f.check("update", collection, key); err != nil {
		return err
	}
	return f.Store.Update(ctx, collection, key, value)
}

func (f *faultyStore) Delete(ctx context.Context, collection, key string) error {
	if err := f.check("delete", collection, key); err != nil {
		return err
	}
	return f.Store.Delete(ctx, collection, key)
}

// failOp fails every call of op on collection
func failOp(op, collection string) func(string, string, string) error {
	return func(gotOp, gotCollection, _ string) error {
		if gotOp == op && gotCollection == collection {
			return errInjected
		}
		return nil
	}
}

// brokenHasher always fails to hash
type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) { return "", errors.New("hasher is broken") }
func (brokenHasher) Verify(string, string) bool  { return false }

type testEnv struct {
	store    *faultyStore
	clock    *fakeClock
	tokens   *TokenService
	accounts *AccountService
	checks   *CheckService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	bolt, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	hasher, err := crypto.NewHasher(crypto.AlgorithmHMACSHA256, []byte("test-hashing-secret"))
	require.NoError(t, err)

	store := &faultyStore{Store: bolt}
	clock := newFakeClock()
	logger := discardLogger()
	locks := NewKeyedMutex()

	tokens := NewTokenService(store, hasher, time.Hour, logger)
	tokens.now = clock.Now

	return &testEnv{
		store:    store,
		clock:    clock,
		tokens:   tokens,
		accounts: NewAccountService(store, hasher, tokens, locks, logger),
		checks:   NewCheckService(store, tokens, locks, DefaultMaxChecks, logger),
	}
}

func (e *testEnv) register(t *testing.T, phone string) {
	t.Helper()
	require.NoError(t, e.accounts.Register(context.Background(), RegisterInput{
		FirstName:    "John",
		LastName:     "Smith",
		Phone:        phone,
		Password:     testPassword,
		TOSAgreement: true,
	}))
}

func (e *testEnv) login(t *testing.T, phone string) *models.Token {
	t.Helper()
	token, err := e.tokens.Issue(context.Background(), LoginInput{Phone: phone, Password: testPassword})
	require.NoError(t, err)
	return token
}

func (e *testEnv) user(t *testing.T, phone string) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, e.store.Read(context.Background(), storage.CollectionUsers, phone, &user))
	return &user
}

func validCheckSpec() CheckSpec {
	return CheckSpec{
		Protocol:       "https",
		URL:            "example.com/health",
		Method:         "get",
		SuccessCodes:   []int{200, 201},
		TimeoutSeconds: 3,
	}
}
