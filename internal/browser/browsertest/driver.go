// Package browsertest provides a scriptable browser.Driver that records
// every call, for testing code written against the driver.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// Call is one recorded driver invocation
type Call struct {
	Method   string
	Selector browser.Selector
	Text     string
	Paths    []string
	Script   string
	Args     []interface{}
}

// Driver is a fake browser.Driver. The zero value finds every element,
// and every Eval leaves out untouched.
type Driver struct {
	// Missing lists selector queries that are never found
	Missing map[string]bool

	OpenErr     error
	NavigateErr error

	// Hooks override the default behaviour when set
	CountFunc func(sel browser.Selector) (int, error)
	ClickFunc func(sel browser.Selector) error
	EvalFunc  func(script string, args ...interface{}) (interface{}, error)
	AliveFunc func() bool

	// MaxPolls bounds how often WaitUntil evaluates its condition (default 3)
	MaxPolls int

	Diagnostics entity.PageDiagnostics

	mu     sync.Mutex
	calls  []Call
	closed bool
}

// New returns a driver on which the given queries are never found
func New(missing ...string) *Driver {
	d := &Driver{Missing: make(map[string]bool)}
	for _, q := range missing {
		d.Missing[q] = true
	}
	return d
}

func (d *Driver) record(c Call) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
}

func (d *Driver) lookup(sel browser.Selector) error {
	if d.Missing[sel.Query] {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, sel)
	}
	return nil
}

// Calls returns a copy of the recorded calls
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// CallCount counts recorded calls of method
func (d *Driver) CallCount(method string) int {
	n := 0
	for _, c := range d.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Clicked reports whether a Click on query was recorded
func (d *Driver) Clicked(query string) bool {
	for _, c := range d.Calls() {
		if c.Method == "Click" && c.Selector.Query == query {
			return true
		}
	}
	return false
}

// Typed returns the last text typed into query
func (d *Driver) Typed(query string) (string, bool) {
	text, ok := "", false
	for _, c := range d.Calls() {
		if c.Method == "Type" && c.Selector.Query == query {
			text, ok = c.Text, true
		}
	}
	return text, ok
}

// Evaluated counts Eval calls of script
func (d *Driver) Evaluated(script string) int {
	n := 0
	for _, c := range d.Calls() {
		if c.Method == "Eval" && c.Script == script {
			n++
		}
	}
	return n
}

func (d *Driver) Open(ctx context.Context) error {
	d.record(Call{Method: "Open"})
	return d.OpenErr
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.record(Call{Method: "Navigate", Text: url})
	return d.NavigateErr
}

func (d *Driver) Find(ctx context.Context, sel browser.Selector, timeout time.Duration) error {
	d.record(Call{Method: "Find", Selector: sel})
	return d.lookup(sel)
}

func (d *Driver) WaitClickable(ctx context.Context, sel browser.Selector, timeout time.Duration) error {
	d.record(Call{Method: "WaitClickable", Selector: sel})
	return d.lookup(sel)
}

func (d *Driver) Count(ctx context.Context, sel browser.Selector) (int, error) {
	d.record(Call{Method: "Count", Selector: sel})
	if d.CountFunc != nil {
		return d.CountFunc(sel)
	}
	if d.Missing[sel.Query] {
		return 0, nil
	}
	return 1, nil
}

func (d *Driver) Click(ctx context.Context, sel browser.Selector, timeout time.Duration) error {
	d.record(Call{Method: "Click", Selector: sel})
	if d.ClickFunc != nil {
		return d.ClickFunc(sel)
	}
	return d.lookup(sel)
}

func (d *Driver) Type(ctx context.Context, sel browser.Selector, text string, timeout time.Duration) error {
	d.record(Call{Method: "Type", Selector: sel, Text: text})
	return d.lookup(sel)
}

func (d *Driver) Upload(ctx context.Context, sel browser.Selector, paths []string, timeout time.Duration) error {
	d.record(Call{Method: "Upload", Selector: sel, Paths: append([]string(nil), paths...)})
	return d.lookup(sel)
}

func (d *Driver) Eval(ctx context.Context, fn string, out interface{}, args ...interface{}) error {
	d.record(Call{Method: "Eval", Script: fn, Args: args})
	if d.EvalFunc == nil {
		return nil
	}
	v, err := d.EvalFunc(fn, args...)
	if err != nil || out == nil || v == nil {
		return err
	}
	// round-trip through JSON like the real driver does
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// WaitUntil evaluates cond up to MaxPolls times without sleeping
func (d *Driver) WaitUntil(ctx context.Context, cond browser.Condition, timeout, interval time.Duration) error {
	d.record(Call{Method: "WaitUntil"})
	polls := d.MaxPolls
	if polls <= 0 {
		polls = 3
	}
	for i := 0; i < polls; i++ {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return fmt.Errorf("%w after %s", browser.ErrTimeout, timeout)
}

func (d *Driver) CaptureDiagnostics(ctx context.Context) entity.PageDiagnostics {
	d.record(Call{Method: "CaptureDiagnostics"})
	diag := d.Diagnostics
	if diag.CapturedAt.IsZero() {
		diag.CapturedAt = time.Now()
	}
	return diag
}

func (d *Driver) Alive(ctx context.Context) bool {
	d.record(Call{Method: "Alive"})
	if d.AliveFunc != nil {
		return d.AliveFunc()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed
}

func (d *Driver) Close() error {
	d.record(Call{Method: "Close"})
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var _ browser.Driver = (*Driver)(nil)
