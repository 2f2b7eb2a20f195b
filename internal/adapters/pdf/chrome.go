package pdf

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// A4 in inches.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// ChromePrinter prints HTML through a headless Chrome started per call.
type ChromePrinter struct {
	execPath string
	timeout  time.Duration
}

func NewChromePrinter(execPath string, timeout time.Duration) *ChromePrinter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromePrinter{execPath: execPath, timeout: timeout}
}

// chromeCandidates are tried in order when no explicit path is configured.
var chromeCandidates = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
}

func (p *ChromePrinter) resolvePath() string {
	if p.execPath != "" {
		return p.execPath
	}
	for _, c := range chromeCandidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return "" // let chromedp auto-detect
}

func (p *ChromePrinter) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // required inside containers
		chromedp.DisableGPU,
	)
	if path := p.resolvePath(); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var buf []byte
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	log.Debug().Int("bytes", len(buf)).Dur("took", time.Since(start)).Msg("pdf printed")
	return buf, nil
}
