package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autoapply/internal/fetch"
	"github.com/jonathan/resume-autoapply/internal/formfill"
)

var inspectFormCmd = &cobra.Command{
	Use:   "inspect-form",
	Short: "Show how the profile maps onto an application form",
	Long: `Parses an application form from a URL or a saved HTML file and prints which controls each
profile field would fill, the resume upload control and the submit control. Nothing is filled
or submitted.`,
	RunE: runInspectForm,
}

var (
	inspectURL  string
	inspectHTML string
)

func init() {
	inspectFormCmd.Flags().StringVar(&inspectURL, "url", "", "URL of the application form")
	inspectFormCmd.Flags().StringVar(&inspectHTML, "html", "", "Path to a saved HTML page")

	rootCmd.AddCommand(inspectFormCmd)
}

func runInspectForm(cmd *cobra.Command, _ []string) error {
	if (inspectURL == "") == (inspectHTML == "") {
		return fmt.Errorf("exactly one of --url or --html is required")
	}
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	var html string
	if inspectURL != "" {
		html, err = fetch.PageHTML(context.Background(), inspectURL, fetchOptions(cfg))
	} else {
		var data []byte
		data, err = os.ReadFile(inspectHTML)
		html = string(data)
	}
	if err != nil {
		return fmt.Errorf("failed to load form: %w", err)
	}

	return inspectForm(os.Stdout, html, newMapper(cfg))
}

// inspectForm writes the dry-run mapping of mapper's rules onto the form in html
func inspectForm(w io.Writer, html string, mapper *formfill.Mapper) error {
	form, err := formfill.ParseHTMLFormString(html)
	if err != nil {
		return err
	}
	controls, err := form.Controls(context.Background())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Forms: %d, controls: %d\n", form.FormCount(), len(controls))
	for _, o := range mapper.Match(controls) {
		if len(o.Matched) == 0 {
			_, _ = fmt.Fprintf(w, "  - %s: no match\n", o.Kind)
			continue
		}
		names := make([]string, len(o.Matched))
		for i, c := range o.Matched {
			names[i] = c.String()
		}
		_, _ = fmt.Fprintf(w, "  ✓ %s: %s\n", o.Kind, strings.Join(names, ", "))
	}

	if c, ok := formfill.FirstFileInput(controls); ok {
		_, _ = fmt.Fprintf(w, "Resume upload: %s\n", c)
	} else {
		_, _ = fmt.Fprintln(w, "Resume upload: none")
	}
	if c, ok := formfill.FindSubmit(controls); ok {
		_, _ = fmt.Fprintf(w, "Submit control: %s\n", c)
	} else {
		_, _ = fmt.Fprintln(w, "Submit control: none")
	}
	return nil
}
