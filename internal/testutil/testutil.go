// Package testutil provides shared test helpers for config files and clocks.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig writes a config file using a YAML store under tmpDir.
// Returns the path to the generated config file; the store lives at
// StorePath(tmpDir).
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := fmt.Sprintf(`store:
  driver: yaml
  yaml_file: %s
review:
  max_attempts: 3
  retry_delay: 1ms
`, StorePath(tmpDir))

	configPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))
	return configPath
}

// StorePath is the YAML store used by SetupTestConfig.
func StorePath(tmpDir string) string {
	return filepath.Join(tmpDir, "data", "cards.yml")
}

// FixedClock always reports the same time.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
