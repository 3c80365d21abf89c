// Package export 把渲染好的 HTML 交给无头浏览器生成 PDF 与截图，并记录下载次数。
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cvforge/internal/config"
)

// A4 纸张尺寸（英寸）
const (
	paperWidthInch  = 8.27
	paperHeightInch = 11.69

	readySelector     = "#pdf-render-ready"
	firstPageSelector = `.page[data-page="1"]`
	screenshotQuality = 90
)

// Engine 是无头浏览器的抽象。实现不做重试，只在截取前等待固定的 settle 时间让图片加载完成。
type Engine interface {
	// PDF 返回 A4、零边距、保留背景色的 PDF。
	PDF(ctx context.Context, html string) ([]byte, error)
	// Screenshot 返回第一页的位图（JPEG 或 PNG）。
	Screenshot(ctx context.Context, html string) ([]byte, error)
}

// Options 是两种引擎共用的参数。
type Options struct {
	ChromePath  string
	SettleDelay time.Duration
	Timeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	return o
}

// NewEngine 根据配置选择引擎实现。
func NewEngine(cfg config.ExportConfig) (Engine, error) {
	opts := Options{ChromePath: cfg.ChromePath, SettleDelay: cfg.SettleDelay}
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", "rod":
		return NewRodEngine(opts), nil
	case "chromedp":
		return NewChromedpEngine(opts), nil
	default:
		return nil, fmt.Errorf("unknown export engine %q", cfg.Engine)
	}
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
