// Package session supplies the LinkedIn credentials the detail endpoint
// needs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-jobfilter-automation/internal/browser"
)

const linkedInURL = "https://www.linkedin.com"

// ErrNoSession means no usable login cookie was found.
var ErrNoSession = errors.New("no linkedin session")

// Session is the authenticated identity of the logged-in user.
type Session struct {
	// Token is the li_at cookie.
	Token string
	// CSRF is the JSESSIONID cookie without quotes; LinkedIn expects it
	// echoed in the csrf-token header.
	CSRF string
}

type Provider interface {
	Session(ctx context.Context) (Session, error)
}

// FileProvider reads the session from a cookie export on every call, so a
// refreshed export is picked up by the next run.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Session(_ context.Context) (Session, error) {
	cookies, err := browser.ReadCookieFile(p.path)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	values := make(map[string]string, len(cookies))
	for _, c := range cookies {
		if strings.Contains(c.Domain, "linkedin.com") {
			values[c.Name] = c.Value
		}
	}
	return fromValues(values)
}

// BrowserProvider reads the session from a live browser context.
type BrowserProvider struct {
	bctx playwright.BrowserContext
}

func NewBrowserProvider(bctx playwright.BrowserContext) *BrowserProvider {
	return &BrowserProvider{bctx: bctx}
}

func (p *BrowserProvider) Session(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	cookies, err := p.bctx.Cookies(linkedInURL)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	values := make(map[string]string, len(cookies))
	for _, c := range cookies {
		values[c.Name] = c.Value
	}
	return fromValues(values)
}

func fromValues(values map[string]string) (Session, error) {
	s := Session{
		Token: values["li_at"],
		CSRF:  strings.Trim(values["JSESSIONID"], `"`),
	}
	if s.Token == "" || s.CSRF == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Static is a fixed session, used when credentials come from elsewhere.
type Static Session

func (s Static) Session(_ context.Context) (Session, error) {
	if s.Token == "" || s.CSRF == "" {
		return Session{}, ErrNoSession
	}
	return Session(s), nil
}
