package browser

import (
	"context"
	"os"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/toolproof/toolproof/types"
)

// Pool owns at most one Chromium-family process, acquired lazily on the
// worker's first browser step and reused across that worker's remaining
// tests by opening a fresh page per test (spec.md 4.5, 5: "shared across
// tests in one worker"). A worker whose tests never touch the browser never
// spawns one. Close is part of the shutdown invariant of spec.md 9: zero
// child browser processes survive runner exit.
type Pool struct {
	kind     types.BrowserKind
	headless bool

	once         sync.Once
	allocatorCtx context.Context
	cancelAlloc  context.CancelFunc
	cancelCtx    context.CancelFunc
	launchErr    error
}

// NewPool records how a browser process should be launched for this worker,
// deferring the actual launch until the first NewPage call. headless is
// forced false in debugger mode (spec.md 4.8: "a visible browser").
func NewPool(kind types.BrowserKind, headless bool) (*Pool, error) {
	return &Pool{kind: kind, headless: headless}, nil
}

func (p *Pool) launch() {
	execPath, err := FindExecutable(os.Getenv, fileExists)
	if err != nil {
		p.launchErr = err
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
	)
	if p.headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	warmupCtx, cancelWarmup := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(warmupCtx); err != nil {
		cancelWarmup()
		cancelAlloc()
		p.launchErr = types.NewStepError(types.ErrBrowserUnavailable, "", err)
		return
	}

	p.allocatorCtx = allocCtx
	p.cancelAlloc = cancelAlloc
	p.cancelCtx = cancelWarmup
}

// NewPage opens a fresh tab, injects the harness so it's present before any
// application script runs (spec.md 9: "inject on every navigation"), and
// begins console capture. The underlying browser process is spawned on the
// first call.
func (p *Pool) NewPage(kind types.BrowserKind) (*Page, error) {
	p.once.Do(p.launch)
	if p.launchErr != nil {
		return nil, p.launchErr
	}

	pageCtx, cancel := chromedp.NewContext(p.allocatorCtx)

	console := newConsoleBuffer()
	console.attach(pageCtx)

	if err := chromedp.Run(pageCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := chromedpAddScriptOnNewDocument(ctx, harnessJS)
		return err
	})); err != nil {
		cancel()
		return nil, types.NewStepError(types.ErrBrowserUnavailable, "", err)
	}

	return &Page{
		ctx:     pageCtx,
		cancel:  cancel,
		console: console,
		kind:    kind,
	}, nil
}

// Close terminates the pool's browser process, if one was ever launched.
// Safe to call once per Pool regardless of whether NewPage was ever called.
func (p *Pool) Close() {
	if p.cancelCtx != nil {
		p.cancelCtx()
	}
	if p.cancelAlloc != nil {
		p.cancelAlloc()
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
