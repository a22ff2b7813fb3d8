// Package browsertest provides scriptable in-memory implementations of
// browser.Page and browser.Driver for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jpalmerr/slotwatch/internal/browser"
)

// NavigateFunc decides where the n-th navigation (1-based) to url lands.
type NavigateFunc func(ctx context.Context, url string, n int) (string, error)

// SubmitFunc decides where the n-th form submission (1-based) lands, given
// the typed fields and the clicked control.
type SubmitFunc func(ctx context.Context, fields map[string]string, control string, n int) (string, error)

// Page is a fake browser.Page. Zero-valued hooks land every navigation on
// the requested URL and every submission on the current location.
type Page struct {
	PageName   string
	OnNavigate NavigateFunc
	OnSubmit   SubmitFunc

	mu          sync.Mutex
	url         string
	fields      map[string]string
	control     string
	clicked     bool
	navigations []string
	submissions int
	closeCount  int
}

var _ browser.Page = (*Page)(nil)

// NewPage returns a Page with the given name and hooks.
func NewPage(name string, onNavigate NavigateFunc, onSubmit SubmitFunc) *Page {
	return &Page{PageName: name, OnNavigate: onNavigate, OnSubmit: onSubmit}
}

func (p *Page) Name() string {
	return p.PageName
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	if p.closeCount > 0 {
		p.mu.Unlock()
		return browser.ErrPageClosed
	}
	p.navigations = append(p.navigations, url)
	n := len(p.navigations)
	hook := p.OnNavigate
	p.mu.Unlock()

	landed := url
	if hook != nil {
		var err error
		landed, err = hook(ctx, url, n)
		if err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.url = landed
	p.mu.Unlock()
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Type(field, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closeCount > 0 {
		return browser.ErrPageClosed
	}
	if p.fields == nil {
		p.fields = make(map[string]string)
	}
	p.fields[field] = text
	return nil
}

func (p *Page) Click(_ context.Context, control string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closeCount > 0 {
		return browser.ErrPageClosed
	}
	p.control = control
	p.clicked = true
	return nil
}

func (p *Page) WaitForNavigation(ctx context.Context) error {
	p.mu.Lock()
	if !p.clicked {
		p.mu.Unlock()
		return browser.ErrNoNavigation
	}
	p.clicked = false
	p.submissions++
	n := p.submissions
	fields := p.fields
	p.fields = nil
	control := p.control
	current := p.url
	hook := p.OnSubmit
	p.mu.Unlock()

	landed := current
	if hook != nil {
		var err error
		landed, err = hook(ctx, fields, control, n)
		if err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.url = landed
	p.mu.Unlock()
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCount++
	return nil
}

// Navigations returns every URL passed to Navigate, in order.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// CountNavigations returns how many times Navigate targeted url.
func (p *Page) CountNavigations(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, u := range p.navigations {
		if u == url {
			n++
		}
	}
	return n
}

// Submissions returns how many form submissions completed.
func (p *Page) Submissions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submissions
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCount > 0
}

// CloseCount returns how many times Close was called.
func (p *Page) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCount
}

// Driver is a fake browser.Driver handing out pages built by Factory.
type Driver struct {
	// Factory builds the i-th page (0-based). Nil builds plain pages.
	Factory func(i int) *Page

	// Err, if set, is returned by NewPage instead of a page.
	Err error

	mu    sync.Mutex
	pages []*Page
}

var _ browser.Driver = (*Driver)(nil)

func (d *Driver) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	i := len(d.pages)
	var p *Page
	if d.Factory != nil {
		p = d.Factory(i)
	} else {
		p = &Page{}
	}
	if p.PageName == "" {
		p.PageName = fmt.Sprintf("page%d", i+1)
	}
	d.pages = append(d.pages, p)
	return p, nil
}

// Pages returns the pages created so far, in creation order.
func (d *Driver) Pages() []*Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Page(nil), d.pages...)
}
