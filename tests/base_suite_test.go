package tests

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/config"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// BackendSuite loads $SETTINGS_FILE (or ~/.env) and builds the run configuration from it.
// Suites embedding it are skipped unless a backend endpoint or credential is configured.
type BackendSuite struct {
	suite.Suite
	settingsFile string
	cfg          config.Config
}

func (s *BackendSuite) SetupSuite() {
	settingsFromEnv := strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	settingsFile := settingsFromEnv
	if settingsFile == "" {
		homeDir, err := os.UserHomeDir()
		require.NoError(s.T(), err)
		settingsFile = filepath.Join(homeDir, ".env")
	}
	s.settingsFile = settingsFile

	if _, err := os.Stat(settingsFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) || settingsFromEnv != "" {
			require.NoError(s.T(), err)
		}
	} else {
		require.NoError(s.T(), godotenv.Overload(settingsFile))
	}

	cfg, err := config.Load("", "")
	require.NoError(s.T(), err)
	if cfg.Backend.APIKey == "" && cfg.Backend.Endpoint == "" {
		s.T().Skip("neither API_KEY nor API_ENDPOINT is set; skipping live backend tests")
	}
	s.cfg = cfg
}

func (s *BackendSuite) SettingsFile() string {
	return s.settingsFile
}

func (s *BackendSuite) Config() config.Config {
	return s.cfg
}
