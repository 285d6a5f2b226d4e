package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-rice/Ice/internal/controlitem"
	"github.com/john-rice/Ice/internal/hotkey"
	"github.com/john-rice/Ice/internal/menubar"
)

func testRecords() []menubar.SectionRecord {
	return []menubar.SectionRecord{
		{
			Name: "visible",
			Item: controlitem.Record{Autosave: "ice-visible", Position: 0, State: controlitem.StateShown},
		},
		{
			Name:   "hidden",
			Item:   controlitem.Record{Autosave: "ice-hidden", Position: 1, State: controlitem.StateHidden},
			Hotkey: &hotkey.Record{Key: "h", Modifiers: 3},
		},
		{
			Name: "always-hidden",
			Item: controlitem.Record{Autosave: "ice-always-hidden", Position: 2, State: controlitem.StateHidden},
		},
	}
}

func TestSectionStore_EmptyFileHasHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.jsonl")

	s, err := NewSectionStore(path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ice_schema_version")
}

func TestSectionStore_RewriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.jsonl")

	s, err := NewSectionStore(path)
	require.NoError(t, err)
	defer s.Close()

	want := testRecords()
	require.NoError(t, s.Rewrite(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSectionStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.jsonl")

	s, err := NewSectionStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Rewrite(testRecords()))
	require.NoError(t, s.Close())

	s2, err := NewSectionStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load()
	require.NoError(t, err)
	assert.Equal(t, testRecords(), got)
}

func TestSectionStore_MalformedRecordIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.jsonl")
	content := `{"ice_schema_version":1,"created_at":0}` + "\n" + `{"name": not json` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s, err := NewSectionStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed record")
}

func TestSectionStore_UnsupportedSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.jsonl")
	content := `{"ice_schema_version":99,"created_at":0}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s, err := NewSectionStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}

func TestSectionStore_ClosedOperationsFail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.jsonl")

	s, err := NewSectionStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Load()
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.Rewrite(nil), ErrStoreClosed)
}

func TestSectionStore_RewriteReplacesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.jsonl")

	s, err := NewSectionStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Rewrite(testRecords()))
	require.NoError(t, s.Rewrite(testRecords()[:1]))

	got, err := s.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "visible", got[0].Name)

	// Backup is removed after a successful rewrite.
	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))
}
