package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigValue_EnvWinsOverConfig(t *testing.T) {
	t.Setenv("TEST_CONFIG_KEY", "from-env")
	assert.Equal(t, "from-env", getConfigValue("from-config", "TEST_CONFIG_KEY", "fallback"))
}

func TestGetConfigValue_ConfigThenDefault(t *testing.T) {
	os.Unsetenv("TEST_CONFIG_KEY")
	assert.Equal(t, "from-config", getConfigValue("from-config", "TEST_CONFIG_KEY", "fallback"))
	assert.Equal(t, "fallback", getConfigValue("", "TEST_CONFIG_KEY", "fallback"))
	// Placeholder values from config templates are ignored.
	assert.Equal(t, "fallback", getConfigValue("YOUR_CLIENT_ID", "TEST_CONFIG_KEY", "fallback"))
}

func TestLoadEnvFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "# comment line\n\nTEST_ENV_A=alpha\nTEST_ENV_B=\"quoted\"\nTEST_ENV_EXISTING=file-value\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TEST_ENV_EXISTING", "process-value")
	os.Unsetenv("TEST_ENV_A")
	os.Unsetenv("TEST_ENV_B")
	t.Cleanup(func() {
		os.Unsetenv("TEST_ENV_A")
		os.Unsetenv("TEST_ENV_B")
	})

	LoadEnvFromFile(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "alpha", os.Getenv("TEST_ENV_A"))
	assert.Equal(t, "quoted", os.Getenv("TEST_ENV_B"))
	// Values already present in the process environment are kept.
	assert.Equal(t, "process-value", os.Getenv("TEST_ENV_EXISTING"))
}

func TestGetYouTubeConfig_DefaultRedirect(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "cid")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "csecret")
	os.Unsetenv("YOUTUBE_REDIRECT_URL")

	cfg, err := GetYouTubeConfig()
	require.NoError(t, err)
	assert.Equal(t, "cid", cfg.ClientID)
	assert.Contains(t, cfg.RedirectURL, "/auth/youtube/callback")
}
