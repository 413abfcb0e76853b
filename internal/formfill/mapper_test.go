package formfill

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// flakyForm fails Fill for selected handles and delegates the rest.
type flakyForm struct {
	*HTMLForm
	failHandles map[string]bool
	controlsErr error
}

func (f *flakyForm) Controls(ctx context.Context) ([]Control, error) {
	if f.controlsErr != nil {
		return nil, f.controlsErr
	}
	return f.HTMLForm.Controls(ctx)
}

func (f *flakyForm) Fill(ctx context.Context, c Control, value string) error {
	if f.failHandles[c.Handle] {
		return errors.New("node is stale")
	}
	return f.HTMLForm.Fill(ctx, c, value)
}

func TestMapper_FillsOnlyMatchingControls(t *testing.T) {
	form, err := ParseHTMLFormString(`<form>
		<input name="first_name">
		<input name="last_name">
		<input name="company">
	</form>`)
	require.NoError(t, err)

	rules := []FieldRule{{Kind: KindFirstName, Value: "Ada", Predicates: []Predicate{{AllOf: []string{"first", "name"}}}}}
	report, err := NewMapper(rules, quietLogger()).Fill(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, "Ada", form.Value("0"))
	assert.Equal(t, "", form.Value("1"))
	assert.Equal(t, "", form.Value("2"))
	assert.Equal(t, 1, report.FilledCount())
}

func TestMapper_FillsDuplicateControlsIdentically(t *testing.T) {
	form, err := ParseHTMLFormString(`<form>
		<input name="email">
		<input id="confirm_email" type="email">
	</form>`)
	require.NoError(t, err)

	report, err := NewMapper(DefaultRules(testProfile), quietLogger()).Fill(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, testProfile.Email, form.Value("0"))
	assert.Equal(t, testProfile.Email, form.Value("1"))
	assert.Equal(t, 2, report.FilledCount())
}

func TestMapper_ReportsUnmatchedRules(t *testing.T) {
	form, err := ParseHTMLFormString(`<form><input type="email" name="email"></form>`)
	require.NoError(t, err)

	report, err := NewMapper(DefaultRules(testProfile), quietLogger()).Fill(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilledCount())
	assert.Contains(t, report.Unmatched(), KindPhone)
	assert.NotContains(t, report.Unmatched(), KindEmail)
	assert.Empty(t, report.Errors())
}

func TestMapper_IsolatesFailingControls(t *testing.T) {
	html, err := ParseHTMLFormString(`<form>
		<input name="first_name">
		<input name="email">
		<input name="phone">
	</form>`)
	require.NoError(t, err)
	form := &flakyForm{HTMLForm: html, failHandles: map[string]bool{"1": true}}

	report, err := NewMapper(DefaultRules(testProfile), quietLogger()).Fill(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, testProfile.FirstName, html.Value("0"))
	assert.Equal(t, "", html.Value("1"))
	assert.Equal(t, testProfile.Phone, html.Value("2"))

	errs := report.Errors()
	require.Len(t, errs, 1)
	var fieldErr *FieldApplicationError
	require.ErrorAs(t, errs[0], &fieldErr)
	assert.Equal(t, KindEmail, fieldErr.Kind)
	assert.Equal(t, "email", fieldErr.Control.Name)
	assert.Contains(t, fieldErr.Error(), "node is stale")
}

func TestMapper_ControlsError(t *testing.T) {
	html, err := ParseHTMLFormString(`<form></form>`)
	require.NoError(t, err)
	form := &flakyForm{HTMLForm: html, controlsErr: errors.New("target closed")}

	_, err = NewMapper(DefaultRules(testProfile), quietLogger()).Fill(context.Background(), form)
	assert.Error(t, err)
}

func TestMapper_AttachResume(t *testing.T) {
	form, err := ParseHTMLFormString(`<form>
		<input type="text" name="name">
		<input type="file" name="cover_letter" disabled>
		<input type="file" name="resume" accept=".pdf,.docx">
		<input type="file" name="other">
	</form>`)
	require.NoError(t, err)

	att, err := NewMapper(nil, quietLogger()).AttachResume(context.Background(), form, "/tmp/resume.docx")
	require.NoError(t, err)

	assert.True(t, att.Attached())
	assert.Equal(t, "resume", att.Control.Name)
	assert.Equal(t, []string{"/tmp/resume.docx"}, form.Files(att.Control.Handle))
	assert.Empty(t, form.Files("3"))
}

func TestMapper_AttachResumeWithoutFileInput(t *testing.T) {
	form, err := ParseHTMLFormString(`<form><input name="email"></form>`)
	require.NoError(t, err)

	att, err := NewMapper(nil, quietLogger()).AttachResume(context.Background(), form, "/tmp/resume.docx")
	require.NoError(t, err)

	assert.False(t, att.Found)
	assert.False(t, att.Attached())
}
