package export

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// BrowserLoader loads images through a headless Chrome <img> element with
// crossOrigin="anonymous" and reads the pixels back through a canvas.
// Requires Chrome/Chromium on the host.
type BrowserLoader struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowserLoader starts a shared browser allocator. Close releases it.
func NewBrowserLoader(ctx context.Context) *BrowserLoader {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	return &BrowserLoader{allocCtx: allocCtx, cancel: cancel}
}

func (b *BrowserLoader) Close() {
	b.cancel()
}

const loadImageScript = `new Promise((resolve, reject) => {
	const img = new Image();
	img.crossOrigin = "anonymous";
	img.onload = () => {
		const canvas = document.createElement("canvas");
		canvas.width = img.naturalWidth;
		canvas.height = img.naturalHeight;
		canvas.getContext("2d").drawImage(img, 0, 0);
		resolve(canvas.toDataURL("image/png"));
	};
	img.onerror = () => reject(new Error("image failed to load"));
	img.src = %s;
})`

func (b *BrowserLoader) Load(ctx context.Context, url string) (image.Image, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	// tie the tab to the caller's deadline
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	src, err := json.Marshal(url)
	if err != nil {
		return nil, err
	}
	var dataURL string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(fmt.Sprintf(loadImageScript, src), &dataURL, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser image load failed: %w", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		return nil, fmt.Errorf("unexpected canvas output")
	}
	data, err := base64.StdEncoding.DecodeString(dataURL[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("decode canvas output: %w", err)
	}
	log.Printf("[poster] browser loaded %s (%d bytes)", url, len(data))
	return decodeImage(data)
}
