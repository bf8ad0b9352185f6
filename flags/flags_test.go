package flags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestUniqueFlags(t *testing.T) {
	require.NoError(t, CheckUnique(Flags))
}

func TestCheckUniqueCatchesDuplicates(t *testing.T) {
	dup := &cli.StringFlag{Name: "root"}
	err := CheckUnique([]cli.Flag{Root, dup})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")
}

func TestHasEnvVar(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
			assert.True(t, strings.HasPrefix(envFlags[0], EnvVarPrefix+"_"))
		})
	}
}

func TestShortFlagsMatchExpectedSet(t *testing.T) {
	expected := map[string]string{
		"retry-count": "r",
		"concurrency": "c",
		"verbose":     "v",
		"interactive": "i",
		"all":         "a",
		"skip-hooks":  "s",
		"name":        "n",
		"path":        "p",
	}

	for _, flag := range Flags {
		names := flag.Names()
		long := names[0]
		want, hasShort := expected[long]
		if !hasShort {
			assert.Len(t, names, 1, "%q should not have a short alias", long)
			continue
		}
		require.Len(t, names, 2, "%q should have exactly one short alias", long)
		assert.Equal(t, want, names[1])
	}
}

func TestBrowserFlagDefaultsToChrome(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{Browser},
		Action: func(ctx *cli.Context) error {
			assert.Equal(t, "chrome", ctx.String(Browser.Name))
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"app"}))
}

func TestConcurrencyFlagParsesShortForm(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{Concurrency},
		Action: func(ctx *cli.Context) error {
			assert.Equal(t, 4, ctx.Int(Concurrency.Name))
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"app", "-c", "4"}))
}
