package browser

import _ "embed"

// harnessJS is injected into every page on every navigation, satisfying the
// "in-page harness" contract of spec.md 4.5. Kept as a plain embedded asset
// rather than a Go string literal so it reads and diffs like ordinary
// JavaScript.
//
//go:embed harness.js
var harnessJS string
