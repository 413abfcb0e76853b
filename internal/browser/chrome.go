// Package browser drives Chrome through the DevTools protocol for application sessions.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/formfill"
)

// controlSelector must match formfill's notion of a control
const controlSelector = "input, textarea, select, button"

// describeControlsJS returns label, visible text and disabled flag for each control,
// in the same document order as querySelectorAll(controlSelector).
const describeControlsJS = `Array.from(document.querySelectorAll("input, textarea, select, button")).map(function (el) {
  var label = "";
  if (el.id) {
    var l = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
    if (l) { label = l.innerText || ""; }
  }
  if (!label) {
    var p = el.closest("label");
    if (p) { label = p.innerText || ""; }
  }
  var text = el.tagName === "BUTTON" ? (el.innerText || "") : (el.type === "submit" || el.type === "button" ? (el.value || "") : "");
  return {label: label.trim(), text: text.trim(), disabled: !!el.disabled};
})`

type controlExtras struct {
	Label    string `json:"label"`
	Text     string `json:"text"`
	Disabled bool   `json:"disabled"`
}

// Options configures the Chrome launcher.
type Options struct {
	Headless bool
	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup.
	ExecPath string
	Verbose  bool
}

// Launcher starts Chrome instances.
type Launcher struct {
	opts   Options
	logger *log.Logger
}

// NewLauncher creates a launcher. A nil logger uses log.Default.
func NewLauncher(opts Options, logger *log.Logger) *Launcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Launcher{opts: opts, logger: logger}
}

// Launch starts a browser with one tab. The browser outlives ctx; callers must Close it.
func (l *Launcher) Launch(ctx context.Context) (apply.Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	var ctxOpts []chromedp.ContextOption
	if l.opts.Verbose {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(l.logger.Printf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// An action-less Run starts the browser without binding its lifetime to a timeout.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if l.opts.Verbose {
		l.logger.Printf("[BROWSER] Started (headless=%t)", l.opts.Headless)
	}

	return &Chrome{tab: tabCtx, tabCancel: tabCancel, allocCancel: allocCancel, logger: l.logger}, nil
}

// Chrome is one browser tab implementing apply.Browser.
type Chrome struct {
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	logger      *log.Logger
	closed      bool
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	if c.closed {
		return errors.New("browser is closed")
	}
	runCtx, cancel := context.WithCancel(c.tab)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apply.ErrTimeout, err)
	}
	return err
}

// Navigate opens url and waits for the document body.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// WaitFor blocks until an element matching selector is visible.
func (c *Chrome) WaitFor(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Controls lists the page's controls. Handles are DevTools node IDs.
func (c *Chrome) Controls(ctx context.Context) ([]formfill.Control, error) {
	var nodes []*cdp.Node
	var extras []controlExtras
	if err := c.run(ctx,
		chromedp.Nodes(controlSelector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		chromedp.Evaluate(describeControlsJS, &extras),
	); err != nil {
		return nil, fmt.Errorf("failed to query controls: %w", err)
	}

	controls := make([]formfill.Control, 0, len(nodes))
	for i, n := range nodes {
		ctrl := formfill.Control{
			Handle:       strconv.FormatInt(n.NodeID.Int64(), 10),
			Tag:          strings.ToLower(n.LocalName),
			Type:         n.AttributeValue("type"),
			Name:         n.AttributeValue("name"),
			ID:           n.AttributeValue("id"),
			Placeholder:  n.AttributeValue("placeholder"),
			AriaLabel:    n.AttributeValue("aria-label"),
			Autocomplete: n.AttributeValue("autocomplete"),
			Accept:       n.AttributeValue("accept"),
		}
		// Extras line up with nodes unless the DOM changed between the two queries.
		if len(extras) == len(nodes) {
			ctrl.Label = extras[i].Label
			ctrl.Text = extras[i].Text
			ctrl.Disabled = extras[i].Disabled
		}
		controls = append(controls, ctrl)
	}
	return controls, nil
}

// Fill clears the control and types value, firing the page's input handlers.
func (c *Chrome) Fill(ctx context.Context, control formfill.Control, value string) error {
	ids, err := nodeIDs(control)
	if err != nil {
		return err
	}
	return c.run(ctx,
		chromedp.Clear(ids, chromedp.ByNodeID),
		chromedp.SendKeys(ids, value, chromedp.ByNodeID),
	)
}

// SetFiles attaches files to a file input. Paths are made absolute.
func (c *Chrome) SetFiles(ctx context.Context, control formfill.Control, paths []string) error {
	ids, err := nodeIDs(control)
	if err != nil {
		return err
	}
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		abs = append(abs, a)
	}
	return c.run(ctx, chromedp.SetUploadFiles(ids, abs, chromedp.ByNodeID))
}

// Click clicks the control.
func (c *Chrome) Click(ctx context.Context, control formfill.Control) error {
	ids, err := nodeIDs(control)
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.Click(ids, chromedp.ByNodeID))
}

// Close shuts the tab and the browser process.
func (c *Chrome) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := chromedp.Cancel(c.tab)
	c.tabCancel()
	c.allocCancel()
	return err
}

func nodeIDs(control formfill.Control) ([]cdp.NodeID, error) {
	id, err := strconv.ParseInt(control.Handle, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid node handle %q for %s", control.Handle, control)
	}
	return []cdp.NodeID{cdp.NodeID(id)}, nil
}
