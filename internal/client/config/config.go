package config

import "time"

// EnvConfigFile names the environment variable that may point to a JSON
// config file when -c/-config is not given.
const EnvConfigFile = "CLOUDDRIVE_CLIENT_CONFIG"

// Config holds runtime settings for the cloud drive CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the API server.
//   - SessionCheckInterval: how often the client re-validates the session.
//   - SessionDBPath: SQLite file holding the signed-in session.
//   - DownloadDir: default directory for downloaded files.
type Config struct {
	ServerBaseURL        string
	SessionCheckInterval time.Duration
	SessionDBPath        string
	DownloadDir          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080"
	c.SessionCheckInterval = 30 * time.Second
	c.SessionDBPath = "clouddrive_session.db"
	c.DownloadDir = "."
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
