package controlitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryItem_StartsShown(t *testing.T) {
	item := NewMemoryItem("Item-0", 0)
	assert.Equal(t, StateShown, item.State())
	assert.Equal(t, "Item-0", item.Autosave())
	assert.Equal(t, 0, item.Position())
}

func TestMemoryItem_SetStateNotifies(t *testing.T) {
	item := NewMemoryItem("Item-0", 0)

	var got []State
	item.OnStateChange(func(s State) {
		got = append(got, s)
	})

	item.SetState(StateHidden)
	item.SetState(StateHidden) // no-op, must not notify again
	item.SetState(StateShown)

	assert.Equal(t, []State{StateHidden, StateShown}, got)
	assert.Equal(t, StateShown, item.State())
}

func TestMemoryItem_RecordRoundTrip(t *testing.T) {
	item := NewMemoryItem("Item-2", 2)
	item.SetState(StateHidden)

	rec := item.Record()
	assert.Equal(t, Record{Autosave: "Item-2", Position: 2, State: StateHidden}, rec)

	restored := RestoreMemoryItem(rec)
	assert.Equal(t, StateHidden, restored.State())
	assert.Equal(t, "Item-2", restored.Autosave())
	assert.Equal(t, 2, restored.Position())
}

func TestState_TextRoundTrip(t *testing.T) {
	tests := []struct {
		state State
		text  string
	}{
		{StateShown, "shown"},
		{StateHidden, "hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			data, err := tt.state.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tt.text, string(data))

			var s State
			require.NoError(t, s.UnmarshalText(data))
			assert.Equal(t, tt.state, s)
		})
	}
}

func TestState_UnmarshalInvalid(t *testing.T) {
	var s State
	err := s.UnmarshalText([]byte("sideways"))
	assert.Error(t, err)
}
