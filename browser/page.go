package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/toolproof/toolproof/types"
)

// Page is one browser tab, owned exclusively by the test that opened it
// (spec.md 5: "pages are per-test"). Closed unconditionally at test end.
type Page struct {
	ctx     context.Context
	cancel  context.CancelFunc
	console *consoleBuffer
	kind    types.BrowserKind
}

func chromedpAddScriptOnNewDocument(ctx context.Context, script string) (page.ScriptIdentifier, error) {
	id, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
	return id, err
}

// Close destroys the tab. Idempotent-safe to call once per test.
func (p *Page) Close() {
	p.cancel()
}

// Load implements "I load {url}" (spec.md 4.5): a schemeless url resolves
// against the test's local file server.
func (p *Page) Load(url string, servePort int, browserTimeout time.Duration) error {
	target := url
	if !strings.Contains(url, "://") {
		if servePort == 0 {
			return types.NewStepError(types.ErrBrowserNavFailed, "",
				fmt.Errorf("relative url %q given but no directory is being served", url))
		}
		target = fmt.Sprintf("http://127.0.0.1:%d/%s", servePort, strings.TrimPrefix(url, "/"))
	}

	ctx, cancel := context.WithTimeout(p.ctx, browserTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(target)); err != nil {
		return types.NewStepError(types.ErrBrowserNavFailed, "", err)
	}
	return nil
}

// Evaluate implements "I evaluate {js}": run for side effect, surfacing a
// harness assertion failure distinctly from a generic script error.
func (p *Page) Evaluate(js string, timeout time.Duration) error {
	_, err := p.evaluate(js, timeout)
	return err
}

// EvaluateResult implements "the result of {js}".
func (p *Page) EvaluateResult(js string, timeout time.Duration) (types.Value, error) {
	raw, err := p.evaluate(js, timeout)
	if err != nil {
		return types.Value{}, err
	}
	if raw == nil {
		return types.Null(), nil
	}
	return types.FromAny(raw), nil
}

func (p *Page) evaluate(js string, timeout time.Duration) (interface{}, error) {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	wrapped := fmt.Sprintf(`(async () => { return (%s); })()`, js)

	var raw json.RawMessage
	err := chromedp.Run(ctx, chromedp.Evaluate(wrapped, &raw, func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
		return params.WithAwaitPromise(true)
	}))
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, ":toolproof_err:") {
			return nil, types.NewStepError(types.ErrAssertionFailedInBrowser, js,
				fmt.Errorf("%s", strings.TrimSpace(strings.SplitN(msg, ":toolproof_err:", 2)[1])))
		}
		return nil, types.NewStepError(types.ErrBrowserJsError, js, err)
	}

	if len(raw) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, types.NewStepError(types.ErrBrowserJsError, js, err)
	}
	return v, nil
}

// clickableFinder is the harness-side implementation of the clickable
// element algorithm of spec.md 4.5: exact text match on button/anchor/
// option/submit-or-button input, or any role in {button, option}.
const clickableFinder = `
(function(text) {
  var candidates = Array.prototype.slice.call(document.querySelectorAll(
    "button, a, option, input[type=submit], input[type=button], [role=button], [role=option]"
  )).filter(function(el) {
    var style = window.getComputedStyle(el);
    return style.display !== "none" && style.visibility !== "hidden" && el.offsetParent !== null;
  });
  var exact = candidates.filter(function(el) { return el.textContent.trim() === text; });
  var pool = exact.length > 0 ? exact : candidates.filter(function(el) {
    return el.textContent.trim().toLowerCase() === text.toLowerCase();
  });
  if (pool.length === 0) return null;
  if (pool.length > 1 && exact.length !== 1) return "ambiguous";
  return exact.length === 1 ? exact[0] : pool[0];
})
`

// ClickText implements "I click {text}" / "I hover {text}".
func (p *Page) ClickText(text string, hover bool, browserTimeout time.Duration) error {
	return p.actOnText(text, hover, browserTimeout)
}

func (p *Page) actOnText(text string, hover bool, browserTimeout time.Duration) error {
	deadline := time.Now().Add(browserTimeout)
	retried := false
	for {
		found, ambiguous, err := p.findByText(text)
		if err != nil {
			return err
		}
		if ambiguous {
			return types.NewStepError(types.ErrClickAmbiguous, text, nil)
		}
		if found {
			action := "el.click()"
			if hover {
				action = `el.dispatchEvent(new MouseEvent('mouseover', {bubbles:true}))`
			}
			js := fmt.Sprintf(`(function() { var el = (%s)(%q); if (!el || el === "ambiguous") return false; %s; return true; })()`,
				clickableFinder, text, action)
			var ok bool
			ctx, cancel := context.WithTimeout(p.ctx, browserTimeout)
			err := chromedp.Run(ctx, chromedp.Evaluate(js, &ok))
			cancel()
			if err == nil && ok {
				return nil
			}
			// detached mid-action: retry once via the outer loop.
			if retried {
				return types.NewStepError(types.ErrElementNotFound, text, err)
			}
			retried = true
		}
		if time.Now().After(deadline) {
			return types.NewStepError(types.ErrElementNotFound, text, nil)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (p *Page) findByText(text string) (found bool, ambiguous bool, err error) {
	js := fmt.Sprintf(`(function() { var el = (%s)(%q); return el === "ambiguous" ? "ambiguous" : (el ? "found" : "none"); })()`,
		clickableFinder, text)
	var result string
	ctx, cancel := context.WithTimeout(p.ctx, 2*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &result)); err != nil {
		return false, false, types.NewStepError(types.ErrBrowserJsError, text, err)
	}
	switch result {
	case "ambiguous":
		return false, true, nil
	case "found":
		return true, false, nil
	default:
		return false, false, nil
	}
}

// ClickSelector implements "I click the selector {selector}" / hover / scroll.
func (p *Page) ClickSelector(selector string, browserTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, browserTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return types.NewStepError(types.ErrElementNotFound, selector, err)
	}
	return nil
}

func (p *Page) HoverSelector(selector string, browserTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, browserTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		mouseOverAction(selector)); err != nil {
		return types.NewStepError(types.ErrElementNotFound, selector, err)
	}
	return nil
}

func (p *Page) ScrollToSelector(selector string, browserTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, browserTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery)); err != nil {
		return types.NewStepError(types.ErrElementNotFound, selector, err)
	}
	return nil
}

func mouseOverAction(selector string) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(
		`document.querySelector(%q).dispatchEvent(new MouseEvent('mouseover', {bubbles:true}))`, selector), nil)
}

// keyMap covers the control characters spec.md 9's Open Question requires a
// decision on: \n and \t per spec.md 4.5, plus backspace and escape per the
// decision recorded in SPEC_FULL.md. The values are the key strings
// chromedp.KeyEvent dispatches as the Enter, Tab, Backspace and Escape keys.
var keyMap = map[rune]string{
	'\n':  "\r",
	'\t':  "\t",
	'\b':  "\b",
	0x1b:  "\x1b",
}

// Type implements "I type {text}".
func (p *Page) Type(text string, browserTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, browserTimeout)
	defer cancel()

	var actions []chromedp.Action
	for _, r := range text {
		if r < 0x20 {
			if key, ok := keyMap[r]; ok {
				actions = append(actions, chromedp.KeyEvent(key))
				continue
			}
			return types.NewStepError(types.ErrTypeUnsupportedCharacter, text,
				fmt.Errorf("unsupported control character %U", r))
		}
		actions = append(actions, chromedp.KeyEvent(string(r)))
	}

	if err := chromedp.Run(ctx, actions...); err != nil {
		return types.NewStepError(types.ErrBrowserJsError, text, err)
	}
	return nil
}

// PressKey implements "I press the {keyname} key".
func (p *Page) PressKey(name string, browserTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, browserTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.KeyEvent(name)); err != nil {
		return types.NewStepError(types.ErrBrowserJsError, name, err)
	}
	return nil
}

// ScreenshotViewport implements "I screenshot the viewport to {filepath}".
func (p *Page) ScreenshotViewport(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf []byte
	if err := chromedp.Run(p.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return types.NewStepError(types.ErrBrowserJsError, path, err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// ScreenshotElement implements "I screenshot the element {selector} to
// {filepath}", preserving device pixel ratio per the element's bounding
// box.
func (p *Page) ScreenshotElement(selector, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf []byte
	if err := chromedp.Run(p.ctx, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return types.NewStepError(types.ErrElementNotFound, selector, err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// Console implements "the console" retrieval.
func (p *Page) Console() types.Value {
	return types.NewString(strings.Join(p.console.Lines(), "\n"))
}
