// Package storagetest holds the behaviour suite every storage.Store
// implementation must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/storage"
)

// Factory returns a fresh, empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Store

// Run executes the store suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("create then read round-trips", func(t *testing.T) {
		testRoundTrip(t, newStore(t))
	})
	t.Run("create never overwrites", func(t *testing.T) {
		testCreateDuplicate(t, newStore(t))
	})
	t.Run("update replaces value", func(t *testing.T) {
		testUpdate(t, newStore(t))
	})
	t.Run("delete removes key", func(t *testing.T) {
		testDelete(t, newStore(t))
	})
	t.Run("missing keys", func(t *testing.T) {
		testMissing(t, newStore(t))
	})
	t.Run("collections are isolated", func(t *testing.T) {
		testCollectionsIsolated(t, newStore(t))
	})
	t.Run("unknown collection", func(t *testing.T) {
		testUnknownCollection(t, newStore(t))
	})
	t.Run("concurrent create of one key", func(t *testing.T) {
		testConcurrentCreate(t, newStore(t))
	})
	t.Run("concurrent writes to distinct keys", func(t *testing.T) {
		testConcurrentDistinctKeys(t, newStore(t))
	})
}

func sampleUser(phone string) *models.User {
	return &models.User{
		FirstName:      "John",
		LastName:       "Smith",
		Phone:          phone,
		HashedPassword: "5f4dcc3b5aa765d61d8327deb882cf99",
		Checks:         []string{"aaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbb"},
		TOSAgreement:   true,
	}
}

func testRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()

	user := sampleUser("5551234567")
	require.NoError(t, s.Create(ctx, storage.CollectionUsers, user.Phone, user))

	var got models.User
	require.NoError(t, s.Read(ctx, storage.CollectionUsers, user.Phone, &got))
	assert.Equal(t, *user, got)

	check := &models.Check{
		ID:             "cccccccccccccccccccc",
		UserPhone:      user.Phone,
		Protocol:       "https",
		URL:            "example.com",
		Method:         "get",
		SuccessCodes:   []int{200, 201},
		TimeoutSeconds: 3,
	}
	require.NoError(t, s.Create(ctx, storage.CollectionChecks, check.ID, check))

	var gotCheck models.Check
	require.NoError(t, s.Read(ctx, storage.CollectionChecks, check.ID, &gotCheck))
	assert.Equal(t, *check, gotCheck)
}

func testCreateDuplicate(t *testing.T, s storage.Store) {
	ctx := context.Background()

	original := sampleUser("5551234567")
	require.NoError(t, s.Create(ctx, storage.CollectionUsers, original.Phone, original))

	other := sampleUser("5551234567")
	other.FirstName = "Mallory"
	err := s.Create(ctx, storage.CollectionUsers, other.Phone, other)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	var got models.User
	require.NoError(t, s.Read(ctx, storage.CollectionUsers, original.Phone, &got))
	assert.Equal(t, "John", got.FirstName, "original record must be unchanged")
}

func testUpdate(t *testing.T, s storage.Store) {
	ctx := context.Background()

	user := sampleUser("5551234567")
	require.NoError(t, s.Create(ctx, storage.CollectionUsers, user.Phone, user))

	user.LastName = "Doe"
	user.Checks = []string{"dddddddddddddddddddd"}
	require.NoError(t, s.Update(ctx, storage.CollectionUsers, user.Phone, user))

	var got models.User
	require.NoError(t, s.Read(ctx, storage.CollectionUsers, user.Phone, &got))
	assert.Equal(t, *user, got)
}

func testDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()

	token := &models.Token{ID: "tttttttttttttttttttt", Phone: "5551234567", Expires: 1}
	require.NoError(t, s.Create(ctx, storage.CollectionTokens, token.ID, token))
	require.NoError(t, s.Delete(ctx, storage.CollectionTokens, token.ID))

	var got models.Token
	err := s.Read(ctx, storage.CollectionTokens, token.ID, &got)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// После удаления ключ можно создать заново
	require.NoError(t, s.Create(ctx, storage.CollectionTokens, token.ID, token))
}

func testMissing(t *testing.T, s storage.Store) {
	ctx := context.Background()

	var got models.User
	assert.ErrorIs(t, s.Read(ctx, storage.CollectionUsers, "0000000000", &got), storage.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, storage.CollectionUsers, "0000000000", sampleUser("0000000000")), storage.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, storage.CollectionUsers, "0000000000"), storage.ErrNotFound)

	// Update не должен создавать запись
	assert.ErrorIs(t, s.Read(ctx, storage.CollectionUsers, "0000000000", &got), storage.ErrNotFound)
}

func testCollectionsIsolated(t *testing.T, s storage.Store) {
	ctx := context.Background()

	const key = "sharedkeysharedkey00"
	require.NoError(t, s.Create(ctx, storage.CollectionTokens, key, &models.Token{ID: key, Phone: "5551234567"}))
	require.NoError(t, s.Create(ctx, storage.CollectionChecks, key, &models.Check{ID: key, UserPhone: "5551234567"}))

	require.NoError(t, s.Delete(ctx, storage.CollectionTokens, key))

	var check models.Check
	require.NoError(t, s.Read(ctx, storage.CollectionChecks, key, &check))
	assert.Equal(t, key, check.ID)
}

func testUnknownCollection(t *testing.T, s storage.Store) {
	ctx := context.Background()

	var v map[string]any
	assert.ErrorIs(t, s.Create(ctx, "sessions", "k", map[string]any{}), storage.ErrUnknownCollection)
	assert.ErrorIs(t, s.Read(ctx, "sessions", "k", &v), storage.ErrUnknownCollection)
	assert.ErrorIs(t, s.Update(ctx, "sessions", "k", map[string]any{}), storage.ErrUnknownCollection)
	assert.ErrorIs(t, s.Delete(ctx, "sessions", "k"), storage.ErrUnknownCollection)
}

func testConcurrentCreate(t *testing.T, s storage.Store) {
	ctx := context.Background()

	const writers = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := sampleUser("5551234567")
			user.FirstName = fmt.Sprintf("writer-%d", i)
			err := s.Create(ctx, storage.CollectionUsers, user.Phone, user)
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, storage.ErrAlreadyExists):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())
}

func testConcurrentDistinctKeys(t *testing.T, s storage.Store) {
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			phone := fmt.Sprintf("555000%04d", i)
			user := sampleUser(phone)
			if !assert.NoError(t, s.Create(ctx, storage.CollectionUsers, phone, user)) {
				return
			}
			user.LastName = "Updated"
			assert.NoError(t, s.Update(ctx, storage.CollectionUsers, phone, user))
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		var got models.User
		phone := fmt.Sprintf("555000%04d", i)
		require.NoError(t, s.Read(ctx, storage.CollectionUsers, phone, &got))
		assert.Equal(t, "Updated", got.LastName)
	}
}
