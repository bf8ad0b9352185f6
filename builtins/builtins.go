package builtins

import "github.com/toolproof/toolproof/registry"

// Register wires every built-in instruction, retrieval, and assertion of
// spec.md 4.2 into reg. Called once per run, after discovery and before any
// test is scheduled. User-defined macros are matched separately by the macro
// package and never enter the registry.
func Register(reg *registry.Registry) {
	RegisterFilesystem(reg)
	RegisterProcess(reg)
	RegisterHosting(reg)
	RegisterBrowser(reg)
	RegisterAssertions(reg)
}
