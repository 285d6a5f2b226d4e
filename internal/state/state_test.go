package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRehideStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    RehideStrategy
		wantErr bool
	}{
		{input: "smart", want: RehideStrategySmart},
		{input: "timed", want: RehideStrategyTimed},
		{input: "focused-app", want: RehideStrategyFocusedApp},
		{input: "", wantErr: true},
		{input: "never", wantErr: true},
		{input: "Timed", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRehideStrategy(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppState_ShowOnHoverPrevented(t *testing.T) {
	a := NewAppState(RehideSettings{})

	assert.False(t, a.ShowOnHoverPrevented())
	a.SetShowOnHoverPrevented(true)
	assert.True(t, a.ShowOnHoverPrevented())
	a.SetShowOnHoverPrevented(false)
	assert.False(t, a.ShowOnHoverPrevented())
}

func TestAppState_RehideSettings(t *testing.T) {
	initial := RehideSettings{Enabled: true, Strategy: RehideStrategyTimed, Interval: 15 * time.Second}
	a := NewAppState(initial)
	assert.Equal(t, initial, a.Rehide())

	updated := RehideSettings{Enabled: false, Strategy: RehideStrategySmart, Interval: time.Minute}
	a.SetRehide(updated)
	assert.Equal(t, updated, a.Rehide())
}

func TestSharedState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := DefaultSharedState()
	s.SetHidden("hidden", true)
	s.SetHidden("visible", false)
	require.NoError(t, SaveSharedState(path, s))

	loaded, err := LoadSharedState(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, loaded.SchemaVersion)
	assert.True(t, loaded.Hidden["hidden"])
	assert.False(t, loaded.Hidden["visible"])
	assert.NotZero(t, loaded.ChangedAt["hidden"])
}

func TestLoadSharedState_Missing(t *testing.T) {
	loaded, err := LoadSharedState(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSharedState().SchemaVersion, loaded.SchemaVersion)
	assert.Empty(t, loaded.Hidden)
}

func TestLoadSharedState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	loaded, err := LoadSharedState(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, loaded.SchemaVersion)
	assert.NotNil(t, loaded.Hidden)
}

func TestSaveSharedState_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	require.NoError(t, SaveSharedState(path, DefaultSharedState()))

	_, err := os.Stat(path)
	require.NoError(t, err)
}
