package rendering

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-autoapply/internal/types"
)

// DefaultArtifactPath is used when no output path is configured.
const DefaultArtifactPath = "tailored_resume.docx"

// Persister writes a tailored resume to path and describes the stored artifact.
type Persister interface {
	Persist(ctx context.Context, resume types.TailoredResume, path string) (types.ResumeArtifact, error)
}

// ForPath returns the writer matching the artifact extension: DOCX for .docx,
// plain text otherwise.
func ForPath(path string) Persister {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return NewDocxWriter()
	}
	return TextWriter{}
}

// TextWriter stores the resume as UTF-8 text.
type TextWriter struct{}

// Persist writes resume.Text to path.
func (TextWriter) Persist(_ context.Context, resume types.TailoredResume, path string) (types.ResumeArtifact, error) {
	text := resume.Text
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := writeFileAtomic(path, func(f *os.File) error {
		_, err := f.WriteString(text)
		return err
	}); err != nil {
		return types.ResumeArtifact{}, err
	}
	return types.ResumeArtifact{Path: path}, nil
}

// writeFileAtomic writes through a temp file in the target directory and renames it
// into place, so a failed write never leaves a truncated artifact.
func writeFileAtomic(path string, write func(*os.File) error) error {
	if path == "" {
		return &PersistError{Path: path, Message: "artifact path is empty"}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PersistError{Path: path, Message: "failed to create directory", Cause: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &PersistError{Path: path, Message: "failed to create temp file", Cause: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return &PersistError{Path: path, Message: "failed to write artifact", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistError{Path: path, Message: "failed to close artifact", Cause: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return &PersistError{Path: path, Message: "failed to set permissions", Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &PersistError{Path: path, Message: "failed to move artifact into place", Cause: err}
	}
	return nil
}
