package icedbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-rice/Ice/internal/menubar"
	"github.com/john-rice/Ice/internal/state"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	registry, err := menubar.NewRegistry(menubar.Config{
		State: state.NewAppState(state.RehideSettings{}),
	})
	require.NoError(t, err)
	return NewServer(registry, nil)
}

func TestServer_ToggleSection(t *testing.T) {
	s := newServer(t)

	require.Nil(t, s.ToggleSection("hidden"))
	hidden, derr := s.SectionHidden("hidden")
	require.Nil(t, derr)
	assert.True(t, hidden)

	require.Nil(t, s.ToggleSection("hidden"))
	hidden, derr = s.SectionHidden("hidden")
	require.Nil(t, derr)
	assert.False(t, hidden)
}

func TestServer_ShowAndHideCascade(t *testing.T) {
	s := newServer(t)

	require.Nil(t, s.HideSection("visible"))
	sections, derr := s.ListSections()
	require.Nil(t, derr)
	require.Len(t, sections, 3)
	for _, sec := range sections {
		assert.True(t, sec.Hidden, "section %s", sec.Name)
	}

	require.Nil(t, s.ShowSection("always-hidden"))
	sections, derr = s.ListSections()
	require.Nil(t, derr)
	for _, sec := range sections {
		assert.False(t, sec.Hidden, "section %s", sec.Name)
	}
}

func TestServer_ListSectionsOrder(t *testing.T) {
	s := newServer(t)

	sections, derr := s.ListSections()
	require.Nil(t, derr)
	require.Len(t, sections, 3)
	assert.Equal(t, "visible", sections[0].Name)
	assert.Equal(t, "hidden", sections[1].Name)
	assert.Equal(t, "always-hidden", sections[2].Name)
}

func TestServer_UnknownSection(t *testing.T) {
	s := newServer(t)

	assert.NotNil(t, s.ShowSection("bogus"))
	assert.NotNil(t, s.HideSection("bogus"))
	assert.NotNil(t, s.ToggleSection("bogus"))
	_, derr := s.SectionHidden("bogus")
	assert.NotNil(t, derr)
}

func TestServer_EmitWithoutConnection(t *testing.T) {
	s := newServer(t)
	err := s.EmitVisibilityChanged(menubar.VisibilityEvent{ID: "x", Section: menubar.SectionHidden, Hidden: true})
	require.Error(t, err)
}
