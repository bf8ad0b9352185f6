// Package builtins registers the built-in instructions, retrievals, and
// assertions of spec.md 4.2 into a shared registry.Registry: filesystem,
// process, hosting, browser, and comparison handlers. Each handler's
// contract is quoted from spec.md in its doc comment; the underlying work
// is delegated to the process/, serve/, browser/, and types packages.
package builtins

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
)

// RegisterFilesystem adds the two filesystem handlers of spec.md 4.2.
func RegisterFilesystem(reg *registry.Registry) {
	reg.RegisterInstruction("I have a {filename} file with the content {contents}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			path, err := resolveUnderTempDir(tc.TempDir, args["filename"].Str)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			return os.WriteFile(path, []byte(args["contents"].Str), 0o644)
		})

	reg.RegisterRetrieval("the file {filename}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) (types.Value, error) {
			path, err := resolveUnderTempDir(tc.TempDir, args["filename"].Str)
			if err != nil {
				return types.Value{}, err
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return types.Value{}, types.NewStepError(types.ErrFileMissing, "", err)
			}
			if !utf8.Valid(raw) {
				return types.Value{}, types.NewStepError(types.ErrFileNotUtf8, "", nil)
			}
			return types.NewString(string(raw)), nil
		})
}

// resolveUnderTempDir joins filename to tempDir and rejects any result that
// escapes it, per spec.md 4.2: "filename must not escape temp_dir".
func resolveUnderTempDir(tempDir, filename string) (string, error) {
	joined := filepath.Join(tempDir, filename)
	rel, err := filepath.Rel(tempDir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", types.NewStepError(types.ErrFileEscapesTempDir, "", err)
	}
	return joined, nil
}
