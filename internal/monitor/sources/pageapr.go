package sources

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

const pageScrapeTimeout = 40 * time.Second

// PageAPR reads an APR figure rendered by a protocol web app with headless
// Chrome. It is used for protocols that publish no API.
type PageAPR struct {
	info
	pageURL  string
	selector string
	logger   *slog.Logger

	// scrape is replaced in tests.
	scrape func(ctx context.Context, pageURL, selector string) (string, error)
}

// NewPageAPR scrapes the text of the first element matching selector on
// pageURL.
func NewPageAPR(name, category, chain, pageURL, selector string, logger *slog.Logger) *PageAPR {
	return &PageAPR{
		info: info{
			name:     name,
			category: category,
			chain:    chain,
			url:      pageURL,
		},
		pageURL:  pageURL,
		selector: selector,
		logger:   logger,
		scrape:   scrapeText,
	}
}

func (p *PageAPR) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	text, err := p.scrape(ctx, p.pageURL, p.selector)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", p.pageURL, err)
	}
	apr, err := parsePercent(text)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("scraped apr", "source", p.name, "text", text)

	snap := p.snapshot()
	snap.Metrics[monitor.MetricAPR] = apr
	setAPY(snap, monitor.MetricAPY, apr, yield.Daily)
	snap.DataSources["page"] = p.pageURL
	return snap, nil
}

func scrapeText(ctx context.Context, pageURL, selector string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crash-reporter", true),
		chromedp.Flag("crash-dumps-dir", "/tmp"),
		chromedp.UserDataDir("/tmp/chromedp-profile"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, pageScrapeTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible),
	); err != nil {
		return "", fmt.Errorf("chromedp: %w", err)
	}
	return text, nil
}
