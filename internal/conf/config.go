package conf

import (
	"path/filepath"
)

type Database struct {
	Type        string `json:"type" env:"TYPE"`
	Host        string `json:"host" env:"HOST"`
	Port        int    `json:"port" env:"PORT"`
	User        string `json:"user" env:"USER"`
	Password    string `json:"password" env:"PASS"`
	Name        string `json:"name" env:"NAME"`
	DBFile      string `json:"db_file" env:"FILE"`
	TablePrefix string `json:"table_prefix" env:"TABLE_PREFIX"`
	SSLMode     string `json:"ssl_mode" env:"SSL_MODE"`
}

type Scheme struct {
	Address string `json:"address" env:"ADDR"`
	HTTPPort int   `json:"http_port" env:"HTTP_PORT"`
}

type LogConfig struct {
	Enable     bool   `json:"enable" env:"ENABLE"`
	Name       string `json:"name" env:"NAME"`
	MaxSize    int    `json:"max_size" env:"MAX_SIZE"`
	MaxBackups int    `json:"max_backups" env:"MAX_BACKUPS"`
	MaxAge     int    `json:"max_age" env:"MAX_AGE"`
	Compress   bool   `json:"compress" env:"COMPRESS"`
}

// Tasks bounds the number of transcription jobs running at once.
// Submissions beyond Workers are rejected, not queued.
type Tasks struct {
	Workers       int `json:"workers" env:"WORKERS"`
	RetentionMins int `json:"retention_mins" env:"RETENTION_MINS"`
}

type Transcribe struct {
	DefaultEngine string `json:"default_engine" env:"DEFAULT_ENGINE"`
	DefaultModel  string `json:"default_model" env:"DEFAULT_MODEL"`
	Prompt        string `json:"prompt" env:"PROMPT"`
	WhisperPath   string `json:"whisper_path" env:"WHISPER_PATH"`

	// Remote ASR service credentials and poll policy.
	RemoteAppID      string `json:"remote_app_id" env:"REMOTE_APP_ID"`
	RemoteSecretKey  string `json:"remote_secret_key" env:"REMOTE_SECRET_KEY"`
	RemoteHost       string `json:"remote_host" env:"REMOTE_HOST"`
	PollIntervalSecs int    `json:"poll_interval_secs" env:"POLL_INTERVAL_SECS"`
	PollTimeoutMins  int    `json:"poll_timeout_mins" env:"POLL_TIMEOUT_MINS"`
}

type Download struct {
	Tool    string `json:"tool" env:"TOOL"`
	APIHost string `json:"api_host" env:"API_HOST"`
}

type Config struct {
	Scheme     Scheme     `json:"scheme" envPrefix:"SCHEME_"`
	Database   Database   `json:"database" envPrefix:"DB_"`
	Log        LogConfig  `json:"log" envPrefix:"LOG_"`
	Tasks      Tasks      `json:"tasks" envPrefix:"TASKS_"`
	Transcribe Transcribe `json:"transcribe" envPrefix:"TRANSCRIBE_"`
	Download   Download   `json:"download" envPrefix:"DOWNLOAD_"`
	TempDir    string     `json:"temp_dir" env:"TEMP_DIR"`
	OutputDir  string     `json:"output_dir" env:"OUTPUT_DIR"`
}

func DefaultConfig(dataDir string) *Config {
	return &Config{
		Scheme: Scheme{
			Address:  "0.0.0.0",
			HTTPPort: 5000,
		},
		Database: Database{
			Type:        "sqlite3",
			DBFile:      filepath.Join(dataDir, "mediascribe.db"),
			TablePrefix: "x_",
		},
		Log: LogConfig{
			Enable:     true,
			Name:       filepath.Join(dataDir, "log", "mediascribe.log"),
			MaxSize:    50,
			MaxBackups: 30,
			MaxAge:     28,
		},
		Tasks: Tasks{
			Workers:       2,
			RetentionMins: 60,
		},
		Transcribe: Transcribe{
			DefaultEngine:    "whisper",
			DefaultModel:     "small",
			WhisperPath:      "whisper",
			RemoteHost:       "https://raasr.xfyun.cn/v2/api",
			PollIntervalSecs: 5,
			PollTimeoutMins:  30,
		},
		Download: Download{
			Tool:    "yt-dlp",
			APIHost: "https://api.bilibili.com",
		},
		TempDir:   filepath.Join(dataDir, "tmp"),
		OutputDir: "output",
	}
}
