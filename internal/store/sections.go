// Package store persists section records to a JSONL file.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/john-rice/Ice/internal/menubar"
)

// SchemaVersion is the current persistence schema version.
const SchemaVersion = 1

// ErrStoreClosed is returned when operations are attempted on a closed
// store.
var ErrStoreClosed = errors.New("store is closed")

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	IceSchemaVersion int   `json:"ice_schema_version"`
	CreatedAt        int64 `json:"created_at"`
}

// SectionStore reads and writes section records as JSONL: a schema
// header line followed by one record per line.
type SectionStore struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// NewSectionStore opens the store at path, creating the file and its
// parent directory if needed.
func NewSectionStore(path string) (*SectionStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	s := &SectionStore{
		path: path,
		file: file,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := s.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return s, nil
}

// writeHeader writes the schema version header to the file.
func (s *SectionStore) writeHeader() error {
	header := schemaHeader{
		IceSchemaVersion: SchemaVersion,
		CreatedAt:        time.Now().Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return err
	}

	_, err = s.file.Write(append(data, '\n'))
	return err
}

// Load reads all section records from the store. A malformed record
// line is an error: the caller decides whether to fall back to
// defaults.
func (s *SectionStore) Load() ([]menubar.SectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.file == nil {
		return nil, ErrStoreClosed
	}

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", s.path, err)
	}

	var records []menubar.SectionRecord
	scanner := bufio.NewScanner(s.file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		// First line is the header
		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err != nil {
				return nil, fmt.Errorf("malformed header in %s: %w", s.path, err)
			}
			if header.IceSchemaVersion > SchemaVersion {
				return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
					header.IceSchemaVersion, SchemaVersion)
			}
			continue
		}

		var rec menubar.SectionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("malformed record at line %d in %s: %w", lineNum, s.path, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", s.path, err)
	}

	if _, err := s.file.Seek(0, io.SeekEnd); err != nil {
		return records, err
	}

	return records, nil
}

// Rewrite replaces the store's contents with records. The previous
// file is kept as a .bak until the rewrite succeeds.
func (s *SectionStore) Rewrite(records []menubar.SectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return err
		}
		s.file = nil
	}

	backupPath := s.path + ".bak"
	if err := os.Rename(s.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		os.Rename(backupPath, s.path)
		return fmt.Errorf("failed to create new file: %w", err)
	}
	s.file = file

	if err := s.writeHeader(); err != nil {
		return err
	}

	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := s.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}

	if err := s.file.Sync(); err != nil {
		return err
	}

	os.Remove(backupPath)
	return nil
}

// Close releases the file handle. Safe to call repeatedly.
func (s *SectionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}
