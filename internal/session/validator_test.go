package session

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	t.Run("rejected token clears the session", func(t *testing.T) {
		client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/profile", r.URL.Path)
			w.WriteHeader(http.StatusUnauthorized)
		})
		store := setupTestStore(t)
		require.NoError(t, store.Save(testState()))

		validator := NewValidator(client, store, "")
		validator.RunNow()

		state, err := store.Current()
		require.NoError(t, err)
		assert.Nil(t, state)
		assert.False(t, validator.LastCheck().IsZero())
	})

	t.Run("accepted token keeps the session", func(t *testing.T) {
		client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"username":"alice","email":"alice@example.com"}`))
		})
		store := setupTestStore(t)
		require.NoError(t, store.Save(testState()))

		NewValidator(client, store, "").RunNow()

		state, err := store.Current()
		require.NoError(t, err)
		assert.NotNil(t, state)
	})

	t.Run("transient upstream failure keeps the session", func(t *testing.T) {
		client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		store := setupTestStore(t)
		require.NoError(t, store.Save(testState()))

		NewValidator(client, store, "").RunNow()

		state, err := store.Current()
		require.NoError(t, err)
		assert.NotNil(t, state)
	})

	t.Run("empty store is left alone", func(t *testing.T) {
		called := false
		client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		store := setupTestStore(t)

		NewValidator(client, store, "").RunNow()
		assert.False(t, called, "no probe without a stored session")
	})

	t.Run("start and stop lifecycle", func(t *testing.T) {
		client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
		validator := NewValidator(client, setupTestStore(t), "*/5 * * * *")

		require.NoError(t, validator.Start())
		assert.Error(t, validator.Start(), "double start is rejected")
		validator.Stop()
		validator.Stop()

		require.NoError(t, validator.Start(), "restart after stop works")
		validator.Stop()
	})

	t.Run("invalid schedule fails to start", func(t *testing.T) {
		client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
		validator := NewValidator(client, setupTestStore(t), "not a schedule")
		assert.Error(t, validator.Start())
	})
}
