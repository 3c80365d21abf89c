package export

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromedpEngine 是基于 chromedp 的备用实现（EXPORT_ENGINE=chromedp）。
type ChromedpEngine struct {
	opts Options
}

func NewChromedpEngine(opts Options) *ChromedpEngine {
	return &ChromedpEngine{opts: opts.withDefaults()}
}

func (e *ChromedpEngine) PDF(ctx context.Context, html string) ([]byte, error) {
	var out []byte
	err := e.run(ctx, html, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		out, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(paperWidthInch).
			WithPaperHeight(paperHeightInch).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			WithPreferCSSPageSize(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	return out, nil
}

// Screenshot 返回第一页的 PNG。
func (e *ChromedpEngine) Screenshot(ctx context.Context, html string) ([]byte, error) {
	var out []byte
	err := e.run(ctx, html, chromedp.Screenshot(firstPageSelector, &out, chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return out, nil
}

func (e *ChromedpEngine) run(ctx context.Context, html string, capture chromedp.Action) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(e.opts.ChromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	runCtx, cancelRun := context.WithTimeout(cctx, e.opts.Timeout)
	defer cancelRun()

	return chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		emulation.SetEmulatedMedia().WithMedia("print"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("get frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady(readySelector, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return settle(ctx, e.opts.SettleDelay)
		}),
		capture,
	)
}
