package cdphost

import (
	"context"
	"errors"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// NavigateTab points an attached tab at a new URL. The call returns once the
// browser acknowledges the navigation, not when the page finishes loading.
func (c *Client) NavigateTab(ctx context.Context, tab types.TabID, rawURL string) error {
	_ = ctx
	t, ok := c.tab(tab)
	if !ok {
		return types.NewError(types.CodeHostUnavailable, "tab not attached: "+string(tab), nil)
	}

	navCtx, cancel := context.WithTimeout(t.ctx, commandTimeout)
	defer cancel()
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errText, _, err := page.Navigate(rawURL).Do(ctx)
		if err != nil {
			return err
		}
		if errText != "" {
			return errors.New(errText)
		}
		return nil
	}))
	if err != nil {
		return types.NewError(types.CodeHostUnavailable, "navigate tab "+string(tab), err)
	}
	return nil
}

// ForgetHistory clears the tab's navigation history when the given URL is
// present in it. Absent entries are a no-op.
func (c *Client) ForgetHistory(ctx context.Context, tab types.TabID, rawURL string) error {
	_ = ctx
	t, ok := c.tab(tab)
	if !ok {
		return types.NewError(types.CodeHostUnavailable, "tab not attached: "+string(tab), nil)
	}

	histCtx, cancel := context.WithTimeout(t.ctx, commandTimeout)
	defer cancel()
	err := chromedp.Run(histCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, entries, err := page.GetNavigationHistory().Do(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.URL == rawURL {
				return page.ResetNavigationHistory().Do(ctx)
			}
		}
		return nil
	}))
	if err != nil {
		return types.NewError(types.CodeHostUnavailable, "clear history for tab "+string(tab), err)
	}
	return nil
}

// OpenTab creates a new browser tab at the given URL. The tab is attached
// and reported through the usual discovery path.
func (c *Client) OpenTab(ctx context.Context, rawURL string) (types.TabID, error) {
	_ = ctx
	execCtx, cancel, err := c.browserExec(commandTimeout)
	if err != nil {
		return "", err
	}
	defer cancel()

	id, err := target.CreateTarget(rawURL).Do(execCtx)
	if err != nil {
		return "", types.NewError(types.CodeHostUnavailable, "open tab", err)
	}
	return types.TabID(id), nil
}

// Screenshot captures the tab's viewport as PNG.
func (c *Client) Screenshot(ctx context.Context, tab types.TabID) ([]byte, error) {
	_ = ctx
	t, ok := c.tab(tab)
	if !ok {
		return nil, types.NewError(types.CodeHostUnavailable, "tab not attached: "+string(tab), nil)
	}

	shotCtx, cancel := context.WithTimeout(t.ctx, commandTimeout)
	defer cancel()
	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, types.NewError(types.CodeHostUnavailable, "capture screenshot", err)
	}
	return buf, nil
}
