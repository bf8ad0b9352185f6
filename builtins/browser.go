package builtins

import (
	"context"
	"fmt"

	"github.com/toolproof/toolproof/browser"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
)

// RegisterBrowser adds the browser-driving instructions and retrievals of
// spec.md 4.2. Each handler reaches the current worker's browser through
// tc.BrowserPool, lazily opening tc.BrowserPage on first use; runner.Deps
// deliberately carries no browser wiring of its own (see runner/machine.go).
func RegisterBrowser(reg *registry.Registry) {
	reg.RegisterInstruction("I load {url}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.Load(args["url"].Str, tc.ServePort, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I evaluate {js}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.Evaluate(args["js"].Str, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterRetrieval("the result of {js}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) (types.Value, error) {
			page, err := currentPage(tc)
			if err != nil {
				return types.Value{}, err
			}
			return page.EvaluateResult(args["js"].Str, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I click {text}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.ClickText(args["text"].Str, false, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I hover {text}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.ClickText(args["text"].Str, true, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I click the selector {selector}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.ClickSelector(args["selector"].Str, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I hover the selector {selector}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.HoverSelector(args["selector"].Str, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I scroll to the selector {selector}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.ScrollToSelector(args["selector"].Str, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I type {text}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.Type(args["text"].Str, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I press the {keyname} key",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			return page.PressKey(args["keyname"].Str, tc.RunSettings.BrowserTimeout)
		})

	reg.RegisterInstruction("I screenshot the viewport to {filepath}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			path, err := resolveUnderTempDir(tc.TempDir, args["filepath"].Str)
			if err != nil {
				return err
			}
			return page.ScreenshotViewport(path)
		})

	reg.RegisterInstruction("I screenshot the element {selector} to {filepath}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			page, err := currentPage(tc)
			if err != nil {
				return err
			}
			path, err := resolveUnderTempDir(tc.TempDir, args["filepath"].Str)
			if err != nil {
				return err
			}
			return page.ScreenshotElement(args["selector"].Str, path)
		})

	reg.RegisterRetrieval("the console",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) (types.Value, error) {
			page, err := currentPage(tc)
			if err != nil {
				return types.Value{}, err
			}
			return page.Console(), nil
		})
}

// currentPage returns tc's already-open page, or opens one lazily from the
// worker's pool on first browser use in this test (spec.md 4.5: "one page
// per test, opened on first browser step").
func currentPage(tc *types.TestContext) (*browser.Page, error) {
	if tc.BrowserPage != nil {
		page, ok := tc.BrowserPage.(*browser.Page)
		if !ok {
			return nil, types.NewStepError(types.ErrBrowserUnavailable, "", fmt.Errorf("test context browser page has unexpected type %T", tc.BrowserPage))
		}
		return page, nil
	}

	pool, ok := tc.BrowserPool.(*browser.Pool)
	if !ok || pool == nil {
		return nil, types.NewStepError(types.ErrBrowserUnavailable, "", fmt.Errorf("no browser pool available for this worker"))
	}

	page, err := pool.NewPage(tc.RunSettings.Browser)
	if err != nil {
		return nil, err
	}
	tc.BrowserPage = page
	tc.AddCleanup(func(context.Context) error {
		page.Close()
		return nil
	})
	return page, nil
}
