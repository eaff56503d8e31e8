package db

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "config/config.yaml"

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"dbname"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type AttendanceConfig struct {
	// 業務日付・時刻を決めるタイムゾーン（全テナント共通）
	Timezone string `yaml:"timezone"`
}

type FaceConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

type UploadsConfig struct {
	Dir        string        `yaml:"dir"`
	TempDir    string        `yaml:"temp_dir"`
	PublicURL  string        `yaml:"public_url"`
	MaxAge     time.Duration `yaml:"max_age"`
	SweepEvery time.Duration `yaml:"sweep_every"`
}

type Config struct {
	Version     string           `yaml:"version"`
	Mode        string           `yaml:"mode"`
	Server      ServerConfig     `yaml:"server"`
	DB          DatabaseConfig   `yaml:"database"`
	Certificate Certs            `yaml:"certificate"`
	Auth        AuthConfig       `yaml:"auth"`
	Attendance  AttendanceConfig `yaml:"attendance"`
	Face        FaceConfig       `yaml:"face"`
	Uploads     UploadsConfig    `yaml:"uploads"`
}

// LoadConfig: YAML を読み込んだ後、.env / 環境変数で秘匿値を上書きする
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}

	// .env はローカル開発用。無くてもエラーにしない
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET が設定されていません")
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("APP_MODE")); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		c.Auth.JWTSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8443"
	}
	if c.Attendance.Timezone == "" {
		c.Attendance.Timezone = "Asia/Kolkata"
	}
	if c.Face.Command == "" {
		c.Face.Command = "python3"
	}
	if c.Face.Timeout <= 0 {
		c.Face.Timeout = 30 * time.Second
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Uploads.TempDir == "" {
		c.Uploads.TempDir = "uploads/tmp"
	}
	if c.Uploads.PublicURL == "" {
		c.Uploads.PublicURL = "/uploads"
	}
	if c.Uploads.MaxAge <= 0 {
		c.Uploads.MaxAge = time.Hour
	}
	if c.Uploads.SweepEvery <= 0 {
		c.Uploads.SweepEvery = 15 * time.Minute
	}
}
