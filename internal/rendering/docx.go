package rendering

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/resume-autoapply/internal/types"
)

//go:embed templates/resume.docx
var defaultTemplate []byte

// bodyPlaceholder is the paragraph in the template replaced by the resume body
const bodyPlaceholder = `<w:p><w:r><w:t>{{RESUME_BODY}}</w:t></w:r></w:p>`

// DocxWriter renders the resume into a DOCX template, one paragraph per line.
// Markdown headings become bold paragraphs and list markers become bullets.
type DocxWriter struct {
	template []byte
}

// NewDocxWriter creates a writer using the embedded template.
func NewDocxWriter() *DocxWriter {
	return &DocxWriter{template: defaultTemplate}
}

// NewDocxWriterWithTemplate creates a writer using a custom template. The template's
// document.xml must contain the {{RESUME_BODY}} placeholder in its own paragraph.
func NewDocxWriterWithTemplate(template []byte) *DocxWriter {
	return &DocxWriter{template: template}
}

// Persist renders resume into the template and writes it to path.
func (w *DocxWriter) Persist(_ context.Context, resume types.TailoredResume, path string) (types.ResumeArtifact, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(w.template), int64(len(w.template)))
	if err != nil {
		return types.ResumeArtifact{}, &PersistError{Path: path, Message: "failed to open docx template", Cause: err}
	}
	defer func() { _ = doc.Close() }()

	editable := doc.Editable()
	if !strings.Contains(editable.GetContent(), bodyPlaceholder) {
		return types.ResumeArtifact{}, &PersistError{Path: path, Message: "docx template has no body placeholder"}
	}
	editable.ReplaceRaw(bodyPlaceholder, RenderParagraphs(resume.Text), 1)

	if err := writeFileAtomic(path, func(f *os.File) error {
		return editable.Write(f)
	}); err != nil {
		return types.ResumeArtifact{}, err
	}
	return types.ResumeArtifact{Path: path}, nil
}

// RenderParagraphs converts resume text into WordprocessingML paragraphs
func RenderParagraphs(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			sb.WriteString(`<w:p/>`)
		case strings.HasPrefix(trimmed, "#"):
			heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			sb.WriteString(`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">`)
			sb.WriteString(EscapeXML(heading))
			sb.WriteString(`</w:t></w:r></w:p>`)
		case isListItem(trimmed):
			sb.WriteString(`<w:p><w:pPr><w:ind w:left="360" w:hanging="180"/></w:pPr><w:r><w:t xml:space="preserve">• `)
			sb.WriteString(EscapeXML(strings.TrimSpace(trimmed[2:])))
			sb.WriteString(`</w:t></w:r></w:p>`)
		default:
			sb.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
			sb.WriteString(EscapeXML(trimmed))
			sb.WriteString(`</w:t></w:r></w:p>`)
		}
	}
	return sb.String()
}

func isListItem(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")
}
