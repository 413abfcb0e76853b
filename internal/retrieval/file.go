package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/resume-autoapply/internal/types"
)

// fileFormatVersion is written into every index file
const fileFormatVersion = 1

// indexFile is the on-disk layout of a FileIndex
type indexFile struct {
	Version  int                    `json:"version"`
	Segments []types.IndexedSegment `json:"segments"`
}

// FileIndex is a MemoryIndex persisted as a JSON file.
type FileIndex struct {
	*MemoryIndex
	path string
}

// OpenFileIndex loads the index at path. A missing file opens an empty index.
func OpenFileIndex(path string) (*FileIndex, error) {
	idx := &FileIndex{MemoryIndex: NewMemoryIndex(nil), path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", path, err)
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse index file %s: %w", path, err)
	}
	if f.Version != fileFormatVersion {
		return nil, fmt.Errorf("unsupported index file version %d (want %d)", f.Version, fileFormatVersion)
	}

	idx.segments = f.Segments
	return idx, nil
}

// Path returns the backing file path
func (f *FileIndex) Path() string {
	return f.path
}

// ReplaceSource updates the in-memory index and rewrites the file.
func (f *FileIndex) ReplaceSource(ctx context.Context, source string, segments []types.IndexedSegment) error {
	if err := f.MemoryIndex.ReplaceSource(ctx, source, segments); err != nil {
		return err
	}
	return f.Save()
}

// Save writes the index to its file
func (f *FileIndex) Save() error {
	data, err := json.MarshalIndent(indexFile{
		Version:  fileFormatVersion,
		Segments: f.Snapshot(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return nil
}
