package bootstrap

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v9"

	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/pkg/utils"
)

// InitConfig loads the JSON config file, writing the defaults first if
// none exists, then applies MEDIASCRIBE_* environment overrides.
func InitConfig(configFile, dataDir string) {
	cfg := conf.DefaultConfig(dataDir)

	data, err := os.ReadFile(configFile)
	switch {
	case os.IsNotExist(err):
		utils.Log.Infof("config file not found, creating default config at %s", configFile)
		writeConfig(configFile, cfg)
	case err != nil:
		utils.Log.Fatalf("failed to read config file: %+v", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			utils.Log.Fatalf("failed to parse config file: %+v", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "MEDIASCRIBE_"}); err != nil {
		utils.Log.Fatalf("failed to read config from environment: %+v", err)
	}

	for _, dir := range []string{cfg.TempDir, cfg.OutputDir, filepath.Join(cfg.OutputDir, "thumbnails")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			utils.Log.Fatalf("failed to create directory %s: %+v", dir, err)
		}
	}

	conf.Conf = cfg
}

func writeConfig(path string, cfg *conf.Config) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		utils.Log.Fatalf("failed to create config directory: %+v", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		utils.Log.Fatalf("failed to marshal default config: %+v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		utils.Log.Fatalf("failed to write default config: %+v", err)
	}
}
