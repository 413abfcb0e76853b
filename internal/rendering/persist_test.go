package rendering

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nguyenthenguyen/docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autoapply/internal/types"
)

var sampleResume = types.TailoredResume{Text: "# Jane Doe\n\n- Built Go & gRPC services\nLed <platform> team"}

func TestForPath(t *testing.T) {
	assert.IsType(t, &DocxWriter{}, ForPath("out/resume.DOCX"))
	assert.IsType(t, TextWriter{}, ForPath("out/resume.txt"))
	assert.IsType(t, TextWriter{}, ForPath("resume"))
}

func TestTextWriter_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "resume.txt")

	artifact, err := TextWriter{}.Persist(context.Background(), sampleResume, path)
	require.NoError(t, err)

	assert.Equal(t, path, artifact.Path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleResume.Text+"\n", string(content))
}

func TestTextWriter_EmptyPath(t *testing.T) {
	_, err := TextWriter{}.Persist(context.Background(), sampleResume, "")
	var persistErr *PersistError
	assert.ErrorAs(t, err, &persistErr)
}

func TestDocxWriter_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultArtifactPath)

	artifact, err := NewDocxWriter().Persist(context.Background(), sampleResume, path)
	require.NoError(t, err)
	assert.Equal(t, path, artifact.Path)

	doc, err := docx.ReadDocxFile(path)
	require.NoError(t, err)
	defer doc.Close()

	content := doc.Editable().GetContent()
	assert.NotContains(t, content, "{{RESUME_BODY}}")
	assert.Contains(t, content, `<w:b/></w:rPr><w:t xml:space="preserve">Jane Doe</w:t>`)
	assert.Contains(t, content, "• Built Go &amp; gRPC services")
	assert.Contains(t, content, "Led &lt;platform&gt; team")
}

func TestDocxWriter_BadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.docx")

	_, err := NewDocxWriterWithTemplate([]byte("not a zip")).Persist(context.Background(), sampleResume, path)

	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.NoFileExists(t, path)
}

func TestRenderParagraphs(t *testing.T) {
	out := RenderParagraphs("Summary\n\n* Go")

	assert.Equal(t,
		`<w:p><w:r><w:t xml:space="preserve">Summary</w:t></w:r></w:p>`+
			`<w:p/>`+
			`<w:p><w:pPr><w:ind w:left="360" w:hanging="180"/></w:pPr><w:r><w:t xml:space="preserve">• Go</w:t></w:r></w:p>`,
		out)
}

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	body, _ := io.ReadAll(params.Body)
	f.bodies = append(f.bodies, string(body))
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Mirror_UploadsArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	putter := &fakePutter{}
	mirror := NewS3MirrorWithClient(TextWriter{}, putter, "resumes", "/tailored/", log.New(io.Discard, "", 0))

	artifact, err := mirror.Persist(context.Background(), sampleResume, path)
	require.NoError(t, err)

	assert.Equal(t, path, artifact.Path)
	assert.Equal(t, "s3://resumes/tailored/resume.txt", artifact.MirrorURL)
	require.Len(t, putter.inputs, 1)
	assert.Equal(t, "tailored/resume.txt", *putter.inputs[0].Key)
	assert.Equal(t, sampleResume.Text+"\n", putter.bodies[0])
}

func TestS3Mirror_UploadFailureKeepsLocalArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	mirror := NewS3MirrorWithClient(TextWriter{}, &fakePutter{err: errors.New("access denied")}, "resumes", "", log.New(io.Discard, "", 0))

	artifact, err := mirror.Persist(context.Background(), sampleResume, path)
	require.NoError(t, err)

	assert.Equal(t, path, artifact.Path)
	assert.Empty(t, artifact.MirrorURL)
	assert.FileExists(t, path)
}

func TestPersistError(t *testing.T) {
	cause := errors.New("read-only file system")
	err := &PersistError{Path: "/out/r.docx", Message: "failed to write artifact", Cause: cause}

	assert.Equal(t, "persist /out/r.docx: failed to write artifact: read-only file system", err.Error())
	assert.ErrorIs(t, err, cause)
}
