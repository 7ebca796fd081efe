package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// Options configures the Chrome process
type Options struct {
	Headless     bool
	ExecPath     string
	UserDataDir  string
	WindowWidth  int
	WindowHeight int
}

// ChromeDriver implements Driver on top of chromedp
type ChromeDriver struct {
	opts   Options
	logger *zap.Logger

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	// console is written from the chromedp event loop, which must never wait on mu
	console *consoleBuffer
}

// NewChromeDriver creates a driver. The browser starts on Open.
func NewChromeDriver(opts Options, logger *zap.Logger) *ChromeDriver {
	return &ChromeDriver{
		opts:    opts,
		logger:  logger,
		console: newConsoleBuffer(maxConsoleErrors),
	}
}

// Open launches Chrome and enables console capture
func (d *ChromeDriver) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx != nil && d.ctx.Err() == nil {
		return nil
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", d.opts.Headless),
	)
	if d.opts.WindowWidth > 0 && d.opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(d.opts.WindowWidth, d.opts.WindowHeight))
	}
	if d.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(d.opts.ExecPath))
	}
	if d.opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(d.opts.UserDataDir))
	}

	// The session outlives the request that opened it, so it hangs off Background.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			d.logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			d.logger.Debug("chromedp: " + fmt.Sprintf(format, args...))
		}),
	)

	chromedp.ListenTarget(browserCtx, d.onTargetEvent)

	// The first Run starts Chrome and binds the process to its context, so it
	// gets the session context itself; the start-up bound is enforced outside.
	err := startWithin(ctx, startTimeout, func() error {
		return chromedp.Run(browserCtx, runtime.Enable(), cdplog.Enable())
	}, func() {
		cancel()
		allocCancel()
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	d.ctx = browserCtx
	d.cancel = cancel
	d.allocCancel = allocCancel

	d.logger.Info("Browser session opened", zap.Bool("headless", d.opts.Headless))
	return nil
}

func (d *ChromeDriver) onTargetEvent(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			if arg.Value != nil {
				parts = append(parts, string(arg.Value))
			} else if arg.Description != "" {
				parts = append(parts, arg.Description)
			}
		}
		text := strings.Join(parts, " ")
		d.logger.Debug("Browser console",
			zap.String("type", string(e.Type)),
			zap.String("text", text))
		if e.Type == runtime.APITypeError || e.Type == runtime.APITypeAssert {
			d.console.add("console: " + text)
		}
	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails != nil {
			d.logger.Warn("Browser exception", zap.String("text", e.ExceptionDetails.Error()))
			d.console.add("exception: " + e.ExceptionDetails.Error())
		}
	case *cdplog.EventEntryAdded:
		if e.Entry != nil && (e.Entry.Level == cdplog.LevelError || e.Entry.Level == cdplog.LevelWarning) {
			d.logger.Debug("Browser log",
				zap.String("level", string(e.Entry.Level)),
				zap.String("text", e.Entry.Text),
				zap.String("url", e.Entry.URL))
		}
		if e.Entry != nil && e.Entry.Level == cdplog.LevelError {
			entry := "log: " + e.Entry.Text
			if e.Entry.URL != "" {
				entry += " (" + e.Entry.URL + ")"
			}
			d.console.add(entry)
		}
	}
}

func (d *ChromeDriver) session() (context.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil || d.ctx.Err() != nil {
		return nil, ErrNotOpen
	}
	return d.ctx, nil
}

// run executes actions against the session bounded by timeout and by the
// caller's ctx. A deadline becomes ErrElementNotFound when sel is set.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, sel *Selector, actions ...chromedp.Action) error {
	sessionCtx, err := d.session()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(sessionCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err = chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		if sel != nil {
			return fmt.Errorf("%w: %s", ErrElementNotFound, sel)
		}
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return err
}

func queryOpt(sel Selector) chromedp.QueryOption {
	if sel.Kind == KindXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Navigate loads url and waits for the body
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("Navigating", zap.String("url", url))
	return d.run(ctx, 60*time.Second, nil,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Find waits until sel is visible
func (d *ChromeDriver) Find(ctx context.Context, sel Selector, timeout time.Duration) error {
	return d.run(ctx, timeout, &sel, chromedp.WaitVisible(sel.Query, queryOpt(sel)))
}

// WaitClickable waits until sel is visible and enabled
func (d *ChromeDriver) WaitClickable(ctx context.Context, sel Selector, timeout time.Duration) error {
	return d.run(ctx, timeout, &sel,
		chromedp.WaitVisible(sel.Query, queryOpt(sel)),
		chromedp.WaitEnabled(sel.Query, queryOpt(sel)),
	)
}

// Count returns the number of elements matching sel right now
func (d *ChromeDriver) Count(ctx context.Context, sel Selector) (int, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, 5*time.Second, nil,
		chromedp.Nodes(sel.Query, &nodes, queryOpt(sel), chromedp.AtLeast(0)))
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Click waits for sel to become clickable and clicks it
func (d *ChromeDriver) Click(ctx context.Context, sel Selector, timeout time.Duration) error {
	d.logger.Debug("Click", zap.Stringer("selector", sel))
	return d.run(ctx, timeout, &sel,
		chromedp.WaitVisible(sel.Query, queryOpt(sel)),
		chromedp.WaitEnabled(sel.Query, queryOpt(sel)),
		chromedp.ScrollIntoView(sel.Query, queryOpt(sel)),
		chromedp.Click(sel.Query, queryOpt(sel)),
	)
}

// Type clears sel and sends text
func (d *ChromeDriver) Type(ctx context.Context, sel Selector, text string, timeout time.Duration) error {
	d.logger.Debug("Type", zap.Stringer("selector", sel))
	return d.run(ctx, timeout, &sel,
		chromedp.WaitVisible(sel.Query, queryOpt(sel)),
		chromedp.Clear(sel.Query, queryOpt(sel)),
		chromedp.SendKeys(sel.Query, text, queryOpt(sel)),
	)
}

// Upload sends paths to a (possibly hidden) file input
func (d *ChromeDriver) Upload(ctx context.Context, sel Selector, paths []string, timeout time.Duration) error {
	d.logger.Debug("Upload", zap.Stringer("selector", sel), zap.Int("files", len(paths)))
	return d.run(ctx, timeout, &sel, chromedp.SetUploadFiles(sel.Query, paths, queryOpt(sel)))
}

// Eval runs fn with args and decodes the result into out
func (d *ChromeDriver) Eval(ctx context.Context, fn string, out interface{}, args ...interface{}) error {
	script, err := buildScript(fn, args...)
	if err != nil {
		return err
	}
	return d.run(ctx, 15*time.Second, nil,
		chromedp.Evaluate(script, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true).WithReturnByValue(true)
		}))
}

// WaitUntil polls cond until it holds or timeout elapses
func (d *ChromeDriver) WaitUntil(ctx context.Context, cond Condition, timeout, interval time.Duration) error {
	return Poll(ctx, timeout, interval, cond)
}

// CaptureDiagnostics snapshots url, title, visible alerts, readyState and
// the console errors seen so far
func (d *ChromeDriver) CaptureDiagnostics(ctx context.Context) entity.PageDiagnostics {
	diag := entity.PageDiagnostics{
		CapturedAt:    time.Now(),
		ConsoleErrors: d.console.snapshot(),
	}

	var problems []string
	if err := d.run(ctx, 3*time.Second, nil, chromedp.Location(&diag.URL)); err != nil {
		problems = append(problems, "url: "+err.Error())
	}
	if err := d.run(ctx, 3*time.Second, nil, chromedp.Title(&diag.Title)); err != nil {
		problems = append(problems, "title: "+err.Error())
	}

	var page struct {
		ReadyState string   `json:"readyState"`
		Alerts     []string `json:"alerts"`
	}
	if err := d.Eval(ctx, diagnosticsJS, &page); err != nil {
		problems = append(problems, "page: "+err.Error())
	} else {
		diag.ReadyState = page.ReadyState
		diag.Alerts = page.Alerts
	}

	if len(problems) > 0 {
		diag.Error = strings.Join(problems, "; ")
	}
	return diag
}

// Alive reports whether the browser still answers
func (d *ChromeDriver) Alive(ctx context.Context) bool {
	var n int
	return d.run(ctx, 2*time.Second, nil, chromedp.Evaluate(`1`, &n)) == nil
}

// Close shuts the browser down
func (d *ChromeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return nil
	}

	var err error
	if d.ctx.Err() == nil {
		err = chromedp.Cancel(d.ctx)
	}
	d.cancel()
	d.allocCancel()
	d.ctx = nil

	d.logger.Info("Browser session closed")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

var _ Driver = (*ChromeDriver)(nil)
