// Package fetch renders pages in a real Chrome instance and turns them
// into snapshots the detectors can analyze. Pages are loaded through Rod
// with stealth patches applied so bot walls see an ordinary browser.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/projectdiscovery/gologger"

	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// Options configures the browser session shared by a batch.
type Options struct {
	// Headless runs Chrome without a visible window. Visible mode is only
	// useful for debugging detector output against what a user sees.
	Headless bool

	// Timeout bounds navigation plus load for a single page.
	Timeout time.Duration

	// InteractionDelay is extra settle time after load, for pages that
	// draw modals and banners from script.
	InteractionDelay time.Duration

	// ScreenshotDir, when set, receives a full-page capture per fetched
	// page. Empty disables screenshots.
	ScreenshotDir string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// Fetcher owns one Chrome process for the lifetime of a batch.
type Fetcher struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// New launches Chrome and connects to it.
func New(opts Options) (*Fetcher, error) {
	opts = opts.withDefaults()

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled")

	ctl, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(ctl)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		gologger.Warning().Msgf("could not ignore certificate errors: %s", err)
	}

	gologger.Debug().Msgf("chrome ready (headless=%v)", opts.Headless)
	return &Fetcher{opts: opts, launcher: l, browser: b}, nil
}

// Close shuts Chrome down.
func (f *Fetcher) Close() error {
	var err error
	if f.browser != nil {
		err = f.browser.Close()
	}
	if f.launcher != nil {
		f.launcher.Cleanup()
	}
	return err
}

// Fetch loads pageURL in a fresh tab and returns its snapshot. The tab is
// always closed before returning.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*snapshot.Page, error) {
	page, err := stealth.Page(f.browser)
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		gologger.Debug().Msgf("load wait ended early for %s: %s", pageURL, err)
	}

	if f.opts.InteractionDelay > 0 {
		select {
		case <-time.After(f.opts.InteractionDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	res, err := page.Context(navCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("read dom of %s: %w", pageURL, err)
	}

	snap, err := snapshot.ParseString(res.Value.Str(), pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	if f.opts.ScreenshotDir != "" {
		if ref, err := f.capture(navCtx, page, pageURL); err != nil {
			gologger.Warning().Msgf("screenshot of %s failed: %s", pageURL, err)
		} else {
			snap.ScreenshotRefs["full"] = ref
		}
	}

	return snap, nil
}

func (f *Fetcher) capture(ctx context.Context, page *rod.Page, pageURL string) (string, error) {
	img, err := page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(f.opts.ScreenshotDir, 0o755); err != nil {
		return "", err
	}
	name := screenshotName(pageURL)
	path := filepath.Join(f.opts.ScreenshotDir, name)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func screenshotName(pageURL string) string {
	host := "page"
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, host)
	return fmt.Sprintf("%s_%s.png", host, time.Now().Format("20060102_150405"))
}
