package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// consoleLevel is one of the four levels the "the console" retrieval
// reports (spec.md 4.5).
type consoleLevel string

const (
	levelLog  consoleLevel = "LOG"
	levelWarn consoleLevel = "WARN"
	levelErr  consoleLevel = "ERR"
	levelDbg  consoleLevel = "DBG"
)

type consoleEvent struct {
	level   consoleLevel
	message string
}

// consoleBuffer accumulates console events for one page, in delivery order,
// satisfying the ordering guarantee of spec.md 5: "Console events captured
// from the browser preserve the order the browser delivered them."
type consoleBuffer struct {
	mu     sync.Mutex
	events []consoleEvent
}

func newConsoleBuffer() *consoleBuffer {
	return &consoleBuffer{}
}

// attach wires the buffer to a page context's CDP event stream. Must be
// called before any navigation so early console output isn't missed.
func (c *consoleBuffer) attach(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			c.append(consoleAPILevel(e.Type), formatArgs(e.Args))
		case *log.EventEntryAdded:
			if e.Entry == nil {
				return
			}
			c.append(logEntryLevel(e.Entry.Level), e.Entry.Text)
		}
	})
}

func (c *consoleBuffer) append(level consoleLevel, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, consoleEvent{level: level, message: message})
}

// Lines renders every captured event as "LEVEL: message", one per line, in
// capture order — the exact contract of the "the console" retrieval.
func (c *consoleBuffer) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = fmt.Sprintf("%s: %s", e.level, e.message)
	}
	return out
}

func consoleAPILevel(t runtime.APIType) consoleLevel {
	switch t {
	case runtime.APITypeWarning:
		return levelWarn
	case runtime.APITypeError:
		return levelErr
	case runtime.APITypeDebug:
		return levelDbg
	default:
		return levelLog
	}
}

func logEntryLevel(l log.Level) consoleLevel {
	switch l {
	case log.LevelWarning:
		return levelWarn
	case log.LevelError:
		return levelErr
	case log.LevelVerbose:
		return levelDbg
	default:
		return levelLog
	}
}

func formatArgs(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if a.Value != nil {
			parts = append(parts, strings.Trim(string(a.Value), `"`))
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
			continue
		}
		parts = append(parts, string(a.Type))
	}
	return strings.Join(parts, " ")
}
