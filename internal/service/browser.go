package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
)

var ErrBrowserDisabled = errors.New("browser is disabled")

const pageTextLimit = 4000

type PageContent struct {
	Title string
	Text  string
}

// Browser renders pages in headless Chrome. Every fetch gets a fresh
// browser process and a hard wall-clock deadline, a hung renderer can
// never wedge the bot.
type Browser struct {
	cfg    config.ChromeConfig
	logger logger.Logger
}

func NewBrowser(cfg config.ChromeConfig, log logger.Logger) *Browser {
	return &Browser{
		cfg:    cfg,
		logger: log.WithField("component", "browser"),
	}
}

func (b *Browser) Enabled() bool {
	return b.cfg.Enabled
}

func (b *Browser) Fetch(ctx context.Context, url string) (*PageContent, error) {
	if !b.cfg.Enabled {
		return nil, ErrBrowserDisabled
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if b.cfg.Path != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.Path))
	}
	for _, opt := range b.cfg.Opts {
		flag, value, _ := strings.Cut(strings.TrimPrefix(opt, "--"), "=")
		if value == "" {
			opts = append(opts, chromedp.Flag(flag, true))
		} else {
			opts = append(opts, chromedp.Flag(flag, value))
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var title, text string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	text = strings.TrimSpace(text)
	if len(text) > pageTextLimit {
		text = text[:pageTextLimit] + "…"
	}

	b.logger.WithFields(logger.Fields{
		"url":   url,
		"title": title,
	}).Debug("Fetched page")
	return &PageContent{Title: title, Text: text}, nil
}
