package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autoapply/internal/formfill"
	"github.com/jonathan/resume-autoapply/internal/types"
)

const applicationForm = `<html><body>
<form id="application">
  <label for="first">First name</label><input id="first" name="first_name">
  <label for="mail">Email</label><input id="mail" type="email" name="email">
  <input type="file" name="resume" accept=".pdf,.docx">
  <button type="submit">Submit application</button>
</form>
</body></html>`

func TestInspectForm(t *testing.T) {
	mapper := formfill.NewMapper(formfill.DefaultRules(types.ApplicantProfile{
		FirstName: "Ada",
		Email:     "ada@example.com",
		Phone:     "555-0100",
	}), nil)

	var out bytes.Buffer
	require.NoError(t, inspectForm(&out, applicationForm, mapper))

	got := out.String()
	assert.Contains(t, got, "Forms: 1, controls: 4")
	assert.Contains(t, got, `✓ first_name: input#first`)
	assert.Contains(t, got, `✓ email: input#mail`)
	assert.Contains(t, got, "- phone: no match")
	assert.Contains(t, got, `Resume upload: input[name="resume"]`)
	assert.Contains(t, got, `Submit control: button`)
}

func TestInspectForm_NoForm(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, inspectForm(&out, "<p>Closed</p>", formfill.NewMapper(nil, nil)))

	assert.Contains(t, out.String(), "Forms: 0, controls: 0")
	assert.Contains(t, out.String(), "Resume upload: none")
	assert.Contains(t, out.String(), "Submit control: none")
}
