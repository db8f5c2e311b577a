package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/staylens/internal/logger"
)

// DynamicConfig holds configuration for the headless-browser fetcher.
type DynamicConfig struct {
	UserAgent string
	Timeout   time.Duration
	Headless  bool
	ExecPath  string // browser binary; empty lets chromedp search
}

// DynamicFetcher renders pages in headless Chrome via chromedp. It only
// issues GET navigations, so it serves the HTML source and never the API.
type DynamicFetcher struct {
	config      DynamicConfig
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewDynamic starts a browser allocator. The browser itself launches
// lazily on the first Fetch.
func NewDynamic(cfg DynamicConfig) *DynamicFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("dynamic fetcher allocator created", "headless", cfg.Headless, "timeout", cfg.Timeout)
	return &DynamicFetcher{config: cfg, allocCtx: allocCtx, cancelAlloc: cancel}
}

// Fetch navigates to targetURL and returns the rendered document.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	result := Content{URL: targetURL, FetchedAt: time.Now()}
	if opts.method() != http.MethodGet {
		return result, fmt.Errorf("%w: %s", ErrUnsupportedMethod, opts.method())
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	// Abort the browser run when the caller's context ends.
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	var (
		mu     sync.Mutex
		status int
	)
	chromedp.ListenTarget(runCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			mu.Lock()
			if status == 0 {
				status = int(resp.Response.Status)
			}
			mu.Unlock()
		}
	})

	var html, title string
	actions := []chromedp.Action{network.Enable()}
	if len(opts.Headers) > 0 {
		hdr := network.Headers{}
		for k, v := range opts.Headers {
			hdr[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(hdr))
	}

	waitSelector := coalesce(opts.WaitForSelector, "body")
	actions = append(actions,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady(waitSelector),
	)
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}
	actions = append(actions,
		chromedp.OuterHTML("html", &html),
		chromedp.Title(&title),
	)

	logger.Debug("dynamic fetch", "url", targetURL, "wait_for", waitSelector)
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	mu.Lock()
	result.StatusCode = status
	mu.Unlock()
	if result.StatusCode == 0 {
		result.StatusCode = http.StatusOK
	}
	result.Body = []byte(html)
	result.Title = title
	result.ContentType = "text/html"

	if result.StatusCode < 200 || result.StatusCode > 299 {
		return result, &StatusError{URL: targetURL, StatusCode: result.StatusCode}
	}
	return result, nil
}

// Close shuts down the browser.
func (f *DynamicFetcher) Close() error {
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
