package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodEngine 基于 go-rod，每次调用启动一个独立的 Chromium 进程。
type RodEngine struct {
	opts Options
}

func NewRodEngine(opts Options) *RodEngine {
	return &RodEngine{opts: opts.withDefaults()}
}

func (e *RodEngine) PDF(ctx context.Context, html string) ([]byte, error) {
	var out []byte
	err := e.withPage(ctx, html, func(page *rod.Page) error {
		reader, err := page.PDF(&proto.PagePrintToPDF{
			PrintBackground:   true,
			PaperWidth:        float64Ptr(paperWidthInch),
			PaperHeight:       float64Ptr(paperHeightInch),
			MarginTop:         float64Ptr(0),
			MarginBottom:      float64Ptr(0),
			MarginLeft:        float64Ptr(0),
			MarginRight:       float64Ptr(0),
			PreferCSSPageSize: true,
		})
		if err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		defer func() {
			_ = reader.Close()
		}()

		out, err = io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("read pdf bytes: %w", err)
		}
		return nil
	})
	return out, err
}

func (e *RodEngine) Screenshot(ctx context.Context, html string) ([]byte, error) {
	var out []byte
	err := e.withPage(ctx, html, func(page *rod.Page) error {
		if el, err := page.Element(firstPageSelector); err == nil {
			if data, shotErr := el.Screenshot(proto.PageCaptureScreenshotFormatJpeg, screenshotQuality); shotErr == nil {
				out = data
				return nil
			}
		}

		data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: intPtr(screenshotQuality),
		})
		if err != nil {
			return fmt.Errorf("page screenshot: %w", err)
		}
		out = data
		return nil
	})
	return out, err
}

// withPage 启动浏览器、载入 HTML、等待渲染完成标记和字体，再执行 fn。
func (e *RodEngine) withPage(ctx context.Context, html string, fn func(page *rod.Page) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	launch := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)
	defer launch.Cleanup()

	if e.opts.ChromePath != "" {
		launch = launch.Bin(e.opts.ChromePath)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
		return fmt.Errorf("set emulated media to print: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	if _, err := page.Element(readySelector); err != nil {
		return fmt.Errorf("wait render marker: %w", err)
	}

	// 等待 WebFont 就绪，避免回退字体度量导致排版差异
	if _, evalErr := page.Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		slog.Default().Warn("export: document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	if err := settle(ctx, e.opts.SettleDelay); err != nil {
		return err
	}
	return fn(page)
}

func float64Ptr(value float64) *float64 {
	return &value
}

func intPtr(value int) *int {
	return &value
}
