package builtins

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostingServesDirectoryAndSetsPort(t *testing.T) {
	reg := registry.New()
	RegisterHosting(reg)
	tc := newTestContext(t)

	require.NoError(t, os.MkdirAll(filepath.Join(tc.TempDir, "site"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tc.TempDir, "site", "index.html"), []byte("hi there"), 0o644))

	_, handler, err := reg.ResolveInstruction("I serve the directory 'site'", nil)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), tc, map[string]types.Value{"dir": types.NewString("site")}))

	assert.NotZero(t, tc.ServePort)
	assert.Equal(t, fmt.Sprint(tc.ServePort), tc.Builtins[types.PlaceholderTestPort])

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/index.html", tc.ServePort))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hi there", string(body))

	errs := tc.RunCleanups(context.Background())
	assert.Empty(t, errs)
}
