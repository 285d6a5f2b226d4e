package state

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ObservesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen *SharedState
	w.OnChange(func(st *SharedState) {
		mu.Lock()
		seen = st
		mu.Unlock()
	})
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	st := DefaultSharedState()
	st.SetHidden("hidden", true)
	require.NoError(t, SaveSharedState(path, st))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen != nil && seen.Hidden["hidden"]
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_CorruptFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	stateCh := make(chan *SharedState, 1)
	w.OnChange(func(st *SharedState) {
		select {
		case stateCh <- st:
		default:
		}
	})
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	select {
	case st := <-stateCh:
		assert.Empty(t, st.Hidden)
		assert.Equal(t, CurrentSchemaVersion, st.SchemaVersion)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
