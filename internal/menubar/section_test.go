package menubar

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-rice/Ice/internal/controlitem"
	"github.com/john-rice/Ice/internal/hotkey"
	"github.com/john-rice/Ice/internal/state"
)

type fakeListener struct {
	mu          sync.Mutex
	invalidated bool
}

func (l *fakeListener) Invalidate() {
	l.mu.Lock()
	l.invalidated = true
	l.mu.Unlock()
}

type fakeRegistrar struct {
	mu        sync.Mutex
	handlers  map[string]func()
	listeners []*fakeListener
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{handlers: make(map[string]func())}
}

func (f *fakeRegistrar) OnKeyDown(b hotkey.Binding, fn func()) (hotkey.Listener, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[b.String()] = fn
	l := &fakeListener{}
	f.listeners = append(f.listeners, l)
	return l, nil
}

func (f *fakeRegistrar) press(spec string) {
	f.mu.Lock()
	fn := f.handlers[spec]
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Config{
		State: state.NewAppState(state.RehideSettings{}),
	})
	require.NoError(t, err)
	return r
}

func hiddenStates(r *Registry) map[SectionName]bool {
	out := make(map[SectionName]bool)
	for _, s := range r.Sections() {
		out[s.Name()] = s.IsHidden()
	}
	return out
}

func hideAll(r *Registry) {
	// hiding the visible section collapses all three
	r.Section(SectionVisible).Hide()
}

func TestRegistry_StartsAllShown(t *testing.T) {
	r := newTestRegistry(t)
	for _, s := range r.Sections() {
		assert.False(t, s.IsHidden(), "section %s", s.Name())
	}
}

func TestSection_ShowDependencies(t *testing.T) {
	tests := []struct {
		show SectionName
		want map[SectionName]bool // hidden state after show, starting all hidden
	}{
		{
			show: SectionVisible,
			want: map[SectionName]bool{SectionVisible: false, SectionHidden: false, SectionAlwaysHidden: true},
		},
		{
			show: SectionHidden,
			want: map[SectionName]bool{SectionVisible: false, SectionHidden: false, SectionAlwaysHidden: true},
		},
		{
			show: SectionAlwaysHidden,
			want: map[SectionName]bool{SectionVisible: false, SectionHidden: false, SectionAlwaysHidden: false},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.show), func(t *testing.T) {
			r := newTestRegistry(t)
			hideAll(r)
			require.Equal(t, map[SectionName]bool{
				SectionVisible: true, SectionHidden: true, SectionAlwaysHidden: true,
			}, hiddenStates(r))

			r.Section(tt.show).Show()
			assert.Equal(t, tt.want, hiddenStates(r))
		})
	}
}

func TestSection_HideDependencies(t *testing.T) {
	tests := []struct {
		hide SectionName
		want map[SectionName]bool // hidden state after hide, starting all shown
	}{
		{
			hide: SectionVisible,
			want: map[SectionName]bool{SectionVisible: true, SectionHidden: true, SectionAlwaysHidden: true},
		},
		{
			hide: SectionHidden,
			want: map[SectionName]bool{SectionVisible: true, SectionHidden: true, SectionAlwaysHidden: true},
		},
		{
			hide: SectionAlwaysHidden,
			want: map[SectionName]bool{SectionVisible: false, SectionHidden: false, SectionAlwaysHidden: true},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.hide), func(t *testing.T) {
			r := newTestRegistry(t)
			r.Section(tt.hide).Hide()
			assert.Equal(t, tt.want, hiddenStates(r))
		})
	}
}

func TestSection_ToggleMatchesShowAndHide(t *testing.T) {
	for _, name := range SectionNames() {
		t.Run(string(name), func(t *testing.T) {
			viaToggle := newTestRegistry(t)
			viaDirect := newTestRegistry(t)

			// shown -> toggle == hide
			viaToggle.Section(name).Toggle()
			viaDirect.Section(name).Hide()
			assert.Equal(t, hiddenStates(viaDirect), hiddenStates(viaToggle))

			// hidden -> toggle == show
			viaToggle.Section(name).Toggle()
			viaDirect.Section(name).Show()
			assert.Equal(t, hiddenStates(viaDirect), hiddenStates(viaToggle))
		})
	}
}

func TestSection_HideIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	s := r.Section(SectionHidden)

	s.Hide()
	first := hiddenStates(r)
	s.Hide()
	assert.Equal(t, first, hiddenStates(r))
}

func TestSection_IsHiddenTracksItemState(t *testing.T) {
	item := controlitem.NewMemoryItem("test", 0)
	s := NewSection(SectionHidden, item, nil)

	assert.False(t, s.IsHidden())
	item.SetState(controlitem.StateHidden)
	assert.True(t, s.IsHidden())
	item.SetState(controlitem.StateShown)
	assert.False(t, s.IsHidden())
}

func TestSection_WithoutRegistryIsInert(t *testing.T) {
	item := controlitem.NewMemoryItem("test", 0)
	s := NewSection(SectionVisible, item, nil)

	s.Hide()
	assert.False(t, s.IsHidden())
	s.Toggle()
	assert.False(t, s.IsHidden())
	s.Show()
	assert.False(t, s.IsHidden())
}

func TestSection_RegistryAssignOnce(t *testing.T) {
	r1 := newTestRegistry(t)
	r2 := newTestRegistry(t)

	item := controlitem.NewMemoryItem("test", 0)
	s := NewSection(SectionVisible, item, nil)

	s.setRegistry(r1)
	s.setRegistry(r2)
	assert.Same(t, r1, s.lookup())
}

func TestSection_HideClearsHoverSuppression(t *testing.T) {
	appState := state.NewAppState(state.RehideSettings{})
	r, err := NewRegistry(Config{State: appState})
	require.NoError(t, err)

	appState.SetShowOnHoverPrevented(true)
	r.Section(SectionHidden).Hide()
	assert.False(t, appState.ShowOnHoverPrevented())
}

func TestSection_HotkeyToggleTracksShownState(t *testing.T) {
	appState := state.NewAppState(state.RehideSettings{})
	r, err := NewRegistry(Config{State: appState})
	require.NoError(t, err)

	registrar := newFakeRegistrar()
	b, err := hotkey.Parse("ctrl+alt+h")
	require.NoError(t, err)

	s := r.Section(SectionHidden)
	require.NoError(t, s.AssignHotkey(registrar, b))
	require.NoError(t, s.EnableHotkey(registrar))
	require.False(t, s.IsHidden())

	// shown -> hotkey hides; hide clears the suppression flag
	registrar.press("ctrl+alt+h")
	assert.True(t, s.IsHidden())
	assert.False(t, appState.ShowOnHoverPrevented())

	// hidden -> hotkey shows; a deliberate reveal suppresses hover
	registrar.press("ctrl+alt+h")
	assert.False(t, s.IsHidden())
	assert.True(t, appState.ShowOnHoverPrevented())
}

func TestSection_AssignHotkeyStaysDormant(t *testing.T) {
	r := newTestRegistry(t)
	registrar := newFakeRegistrar()

	b, err := hotkey.Parse("ctrl+alt+h")
	require.NoError(t, err)

	s := r.Section(SectionHidden)
	require.NoError(t, s.AssignHotkey(registrar, b))

	assert.Empty(t, registrar.listeners)
	assert.False(t, s.HotkeyEnabled())
	assert.Equal(t, b, s.Binding())

	// The binding is remembered but inert until enabled.
	registrar.press("ctrl+alt+h")
	assert.False(t, s.IsHidden())
}

func TestSection_EnableDisableHotkey(t *testing.T) {
	r := newTestRegistry(t)
	registrar := newFakeRegistrar()

	b, err := hotkey.Parse("ctrl+alt+h")
	require.NoError(t, err)

	s := r.Section(SectionHidden)
	require.NoError(t, s.AssignHotkey(registrar, b))
	require.NoError(t, s.EnableHotkey(registrar))

	require.Len(t, registrar.listeners, 1)
	assert.True(t, s.HotkeyEnabled())

	// Enabling again does not register a second listener.
	require.NoError(t, s.EnableHotkey(registrar))
	require.Len(t, registrar.listeners, 1)

	s.DisableHotkey()
	assert.False(t, s.HotkeyEnabled())
	assert.True(t, registrar.listeners[0].invalidated)
	assert.Equal(t, b, s.Binding())

	// Disabling is idempotent and the binding can be re-enabled.
	s.DisableHotkey()
	require.NoError(t, s.EnableHotkey(registrar))
	require.Len(t, registrar.listeners, 2)
	assert.True(t, s.HotkeyEnabled())
}

func TestSection_EnableHotkeyWithoutBinding(t *testing.T) {
	r := newTestRegistry(t)
	registrar := newFakeRegistrar()

	s := r.Section(SectionHidden)
	require.NoError(t, s.EnableHotkey(registrar))

	assert.Empty(t, registrar.listeners)
	assert.False(t, s.HotkeyEnabled())
}

func TestSection_AssignHotkeyReplacesActiveRegistration(t *testing.T) {
	r := newTestRegistry(t)
	registrar := newFakeRegistrar()

	first, err := hotkey.Parse("ctrl+alt+h")
	require.NoError(t, err)
	second, err := hotkey.Parse("ctrl+alt+j")
	require.NoError(t, err)

	s := r.Section(SectionHidden)
	require.NoError(t, s.AssignHotkey(registrar, first))
	require.NoError(t, s.EnableHotkey(registrar))

	// Assignment while active swaps the registration in place.
	require.NoError(t, s.AssignHotkey(registrar, second))
	require.Len(t, registrar.listeners, 2)
	assert.True(t, registrar.listeners[0].invalidated)
	assert.False(t, registrar.listeners[1].invalidated)
	assert.True(t, s.HotkeyEnabled())
	assert.Equal(t, second, s.Binding())
}

func TestSection_AssignHotkeyWhileDormantStaysDormant(t *testing.T) {
	r := newTestRegistry(t)
	registrar := newFakeRegistrar()

	first, err := hotkey.Parse("ctrl+alt+h")
	require.NoError(t, err)
	second, err := hotkey.Parse("ctrl+alt+j")
	require.NoError(t, err)

	s := r.Section(SectionHidden)
	require.NoError(t, s.AssignHotkey(registrar, first))
	require.NoError(t, s.AssignHotkey(registrar, second))

	assert.Empty(t, registrar.listeners)
	assert.False(t, s.HotkeyEnabled())
	assert.Equal(t, second, s.Binding())
}

func TestSection_AssignHotkeyZeroRemoves(t *testing.T) {
	r := newTestRegistry(t)
	registrar := newFakeRegistrar()

	b, err := hotkey.Parse("ctrl+alt+h")
	require.NoError(t, err)

	s := r.Section(SectionHidden)
	require.NoError(t, s.AssignHotkey(registrar, b))
	require.NoError(t, s.EnableHotkey(registrar))
	require.NoError(t, s.AssignHotkey(registrar, hotkey.Binding{}))

	assert.True(t, s.Binding().IsZero())
	assert.False(t, s.HotkeyEnabled())
	assert.True(t, registrar.listeners[0].invalidated)
}

func TestRegistry_ApplyBindings(t *testing.T) {
	r := newTestRegistry(t)
	registrar := newFakeRegistrar()

	b, err := hotkey.Parse("ctrl+alt+v")
	require.NoError(t, err)
	require.NoError(t, r.ApplyBindings(registrar, map[string]hotkey.Binding{
		"visible": b,
	}))
	assert.Equal(t, b, r.Section(SectionVisible).Binding())
	assert.True(t, r.Section(SectionVisible).HotkeyEnabled())
	assert.True(t, r.Section(SectionHidden).Binding().IsZero())
	assert.False(t, r.Section(SectionHidden).HotkeyEnabled())

	// Reconciling with an empty map removes the binding.
	require.NoError(t, r.ApplyBindings(registrar, nil))
	assert.True(t, r.Section(SectionVisible).Binding().IsZero())
	assert.False(t, r.Section(SectionVisible).HotkeyEnabled())
}

func TestRegistry_EnableHotkeys(t *testing.T) {
	r := newTestRegistry(t)
	registrar := newFakeRegistrar()

	b, err := hotkey.Parse("ctrl+alt+h")
	require.NoError(t, err)
	require.NoError(t, r.Section(SectionHidden).AssignHotkey(registrar, b))
	require.NoError(t, r.EnableHotkeys(registrar))

	require.Len(t, registrar.listeners, 1)
	assert.True(t, r.Section(SectionHidden).HotkeyEnabled())
	assert.False(t, r.Section(SectionVisible).HotkeyEnabled())
}

func TestRegistry_SectionUnknownName(t *testing.T) {
	r := newTestRegistry(t)
	assert.Nil(t, r.Section(SectionName("bogus")))
}
