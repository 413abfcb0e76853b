package fetch

import (
	"context"
	"log"

	"github.com/jonathan/resume-autoapply/internal/ingestion"
	"github.com/jonathan/resume-autoapply/internal/types"
)

// JobDescription fetches a job posting and extracts its description text using
// the selectors for the posting's platform.
func JobDescription(ctx context.Context, urlStr string, opts *Options) (types.JobDescription, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	platform := DetectPlatform(urlStr)
	if opts.Verbose {
		log.Printf("[VERBOSE] Detected platform %s for %s", platform, urlStr)
	}

	page, err := Get(ctx, urlStr, opts)
	if err != nil {
		return "", err
	}
	content, noise := ContentSelectors(platform), NoiseSelectors(platform)
	text, err := ExtractText(page.HTML, content, noise)
	if err != nil {
		return "", err
	}

	if opts.Render && ShouldUseBrowser(text) {
		if opts.Verbose {
			log.Printf("[VERBOSE] Static text too short (%d chars), rendering in browser", len(text))
		}
		html, err := renderFunc(ctx, urlStr, "", opts.Timeout, opts.Verbose)
		if err != nil {
			return "", renderErr(urlStr, err)
		}
		if text, err = ExtractText(html, content, noise); err != nil {
			return "", err
		}
	}

	return types.JobDescription(ingestion.CleanText(text)), nil
}

// PageHTML returns the HTML of a page, rendered in a browser when opts.Render is
// set so that script-built forms are present.
func PageHTML(ctx context.Context, urlStr string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Render {
		html, err := renderFunc(ctx, urlStr, FormSelector(DetectPlatform(urlStr)), opts.Timeout, opts.Verbose)
		if err != nil {
			return "", renderErr(urlStr, err)
		}
		return html, nil
	}
	page, err := Get(ctx, urlStr, opts)
	if err != nil {
		return "", err
	}
	return page.HTML, nil
}
