// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/page/pagetest"
	"github.com/xkilldash9x/quickapply-cli/internal/service"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
)

const profileYAML = `
first_name: Ada
last_name: Lovelace
email: ada@example.com
phone: "5550100"
country: India
`

type nopCloser struct{}

func (nopCloser) Shutdown(context.Context) error { return nil }

// runCLI executes the command tree against an in-memory page.
func runCLI(t *testing.T, p *pagetest.Page, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(observability.ResetForTest)

	open := func(context.Context, config.Interface, timing.Clock, *zap.Logger) (page.Page, service.Closer, error) {
		return p, nopCloser{}, nil
	}
	factory := service.NewComponentFactory(
		service.WithPageOpener(open),
		service.WithClock(timing.NewFakeClock(time.Unix(0, 0))),
	)

	root := NewRootCommand(factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeFiles creates a profile and a quiet config in a temp dir.
func writeFiles(t *testing.T) (profilePath, configPath string) {
	t.Helper()
	dir := t.TempDir()
	profilePath = filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(profileYAML), 0o600))

	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logger:\n  level: fatal\n  log_file: \"\"\n"), 0o600))
	return profilePath, configPath
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := runCLI(t, pagetest.New(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "quickapply version "+Version)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, pagetest.New(), "version")
	require.NoError(t, err)
	assert.Equal(t, "quickapply "+Version+"\n", out)
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, err := runCLI(t, pagetest.New())
	require.NoError(t, err)
	assert.Contains(t, out, "QuickApply fills and submits job application wizards")
}

func TestRootCmd_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("campaign: [unclosed"), 0o600))

	_, err := runCLI(t, pagetest.New(), "fill", "--config", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize configuration")
}

func TestRootCmd_EnvironmentOverride(t *testing.T) {
	t.Setenv("QUICKAPPLY_CAMPAIGN_QUOTA", "0")
	_, cfgPath := writeFiles(t)

	_, err := runCLI(t, pagetest.New(), "campaign", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load or validate config")
}

func TestConfigFromContext(t *testing.T) {
	_, err := configFromContext(context.Background())
	assert.Error(t, err)

	cfg := config.NewDefaultConfig()
	got, err := configFromContext(context.WithValue(context.Background(), configKey, cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
