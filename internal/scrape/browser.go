package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rugbyscores/ingestion/internal/metrics"
	"rugbyscores/ingestion/internal/retry"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Page describes one render request
type Page struct {
	URL          string
	WaitSelector string
	Expand       bool
}

// Renderer turns a page URL into fully rendered HTML
type Renderer interface {
	Render(ctx context.Context, page Page) (string, error)
}

// BrowserOptions configures the headless browser session
type BrowserOptions struct {
	Headless       bool
	ExecPath       string
	UserAgent      string
	NavAttempts    int
	NavBackoff     time.Duration
	NavTimeout     time.Duration
	MinInterval    time.Duration
	RowWaitTimeout time.Duration
	SettleDelay    time.Duration
	ExpandRounds   int
}

// cookie consent buttons, tried in order
var consentSelectors = []string{
	"#onetrust-accept-btn-handler",
	"//button[contains(normalize-space(.), 'I Accept')]",
	"//button[contains(normalize-space(.), 'Accept all')]",
	"//button[contains(normalize-space(.), 'Accept')]",
	"//button[contains(normalize-space(.), 'AGREE')]",
	"//button[contains(normalize-space(.), 'Agree')]",
}

const showMoreScript = `(() => {
	const el = [...document.querySelectorAll('a, button')]
		.find(e => /show more/i.test(e.textContent || ''));
	if (!el) return false;
	el.click();
	return true;
})()`

// blocked resource types are failed before they hit the network
var blockedResources = []network.ResourceType{
	network.ResourceTypeImage,
	network.ResourceTypeFont,
	network.ResourceTypeMedia,
}

// Browser is a single headless Chrome tab reused serially for every page of
// a run. It is not safe for concurrent Render calls.
type Browser struct {
	opts        BrowserOptions
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	limiter     *rate.Limiter
}

// NewBrowser starts Chrome and opens the tab used for rendering
func NewBrowser(opts BrowserOptions) (*Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1280, 900),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			if err := fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx); err != nil {
				log.Debug().Err(err).Str("url", paused.Request.URL).Msg("Failed to block request")
			}
		}()
	})

	patterns := make([]*fetch.RequestPattern, 0, len(blockedResources))
	for _, rt := range blockedResources {
		patterns = append(patterns, &fetch.RequestPattern{URLPattern: "*", ResourceType: rt})
	}

	if err := chromedp.Run(tabCtx, fetch.Enable().WithPatterns(patterns)); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	interval := rate.Inf
	if opts.MinInterval > 0 {
		interval = rate.Every(opts.MinInterval)
	}

	log.Info().
		Bool("headless", opts.Headless).
		Dur("nav_timeout", opts.NavTimeout).
		Int("nav_attempts", opts.NavAttempts).
		Msg("Browser started")

	return &Browser{
		opts:        opts,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		limiter:     rate.NewLimiter(interval, 1),
	}, nil
}

// Close shuts the tab and the browser process down
func (b *Browser) Close() {
	b.cancelTab()
	b.cancelAlloc()
	log.Info().Msg("Browser closed")
}

// Render navigates to page.URL with retries, accepts any cookie banner,
// waits for the row selector, optionally expands the listing and returns
// the document's outer HTML.
func (b *Browser) Render(ctx context.Context, page Page) (string, error) {
	// chromedp actions must run on the tab context; tie its lifetime to ctx
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := retry.Do(ctx, b.opts.NavAttempts, b.opts.NavBackoff, func(attempt int) error {
		if err := b.limiter.Wait(ctx); err != nil {
			return retry.Stop(err)
		}

		start := time.Now()
		if err := b.navigate(runCtx, page.URL); err != nil {
			metrics.RecordNavigation("error", time.Since(start).Seconds())
			log.Warn().
				Err(err).
				Str("url", page.URL).
				Int("attempt", attempt).
				Msg("Navigation failed")
			return err
		}
		metrics.RecordNavigation("success", time.Since(start).Seconds())
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", page.URL, err)
	}

	b.acceptCookies(runCtx)

	if page.WaitSelector != "" {
		b.waitFor(runCtx, page.WaitSelector)
	}

	if err := chromedp.Run(runCtx, chromedp.Sleep(b.opts.SettleDelay)); err != nil {
		return "", fmt.Errorf("failed to settle page: %w", err)
	}

	if page.Expand {
		b.expand(runCtx)
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

// navigate loads url. A timeout is accepted once the DOM is ready; the live
// pages keep sockets open and never reach network idle.
func (b *Browser) navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, b.opts.NavTimeout)
	defer cancel()

	err := chromedp.Run(navCtx, chromedp.Navigate(url))
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return err
	}

	var state string
	if evalErr := chromedp.Run(ctx, chromedp.Evaluate(`document.readyState`, &state)); evalErr != nil {
		return err
	}
	if state == "interactive" || state == "complete" {
		log.Debug().Str("url", url).Str("ready_state", state).Msg("Navigation timed out after DOM ready")
		return nil
	}
	return err
}

// acceptCookies clicks the first consent button found. Failures are ignored.
func (b *Browser) acceptCookies(ctx context.Context) {
	for _, sel := range consentSelectors {
		var nodes []*cdp.Node
		findCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := chromedp.Run(findCtx, chromedp.Nodes(sel, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
		cancel()
		if err != nil || len(nodes) == 0 {
			continue
		}

		clickCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = chromedp.Run(clickCtx, chromedp.MouseClickNode(nodes[0]), chromedp.Sleep(300*time.Millisecond))
		cancel()
		if err != nil {
			log.Debug().Err(err).Str("selector", sel).Msg("Consent click failed")
			continue
		}
		log.Debug().Str("selector", sel).Msg("Cookie consent accepted")
		return
	}
}

func (b *Browser) waitFor(ctx context.Context, selector string) {
	waitCtx, cancel := context.WithTimeout(ctx, b.opts.RowWaitTimeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		log.Warn().
			Err(err).
			Str("selector", selector).
			Dur("timeout", b.opts.RowWaitTimeout).
			Msg("Rows did not appear, continuing")
	}
}

// expand scrolls and clicks "Show more" until the rounds run out
func (b *Browser) expand(ctx context.Context) {
	clicks := 0
	for i := 0; i < b.opts.ExpandRounds; i++ {
		var clicked bool
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollBy(0, 3000)`, nil),
			chromedp.Sleep(400*time.Millisecond),
			chromedp.Evaluate(showMoreScript, &clicked),
		)
		if err != nil {
			log.Debug().Err(err).Int("round", i).Msg("Expand round failed")
			return
		}
		if clicked {
			clicks++
			if err := chromedp.Run(ctx, chromedp.Sleep(700*time.Millisecond)); err != nil {
				return
			}
		}
	}
	log.Debug().Int("clicks", clicks).Msg("Listing expanded")
}
