// Package config はアプリケーション全体の環境設定と実行時パラメータを定義します。
package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義です
const (
	DefaultModel       = "gemini-3-flash-preview"
	DefaultImageModel  = "gemini-3-pro-image-preview"
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultAutosavePath は自動保存スナップショットの SQLite ファイルです。
	DefaultAutosavePath = "comic-studio.db"

	// DefaultGeminiTemperature は構成案生成の温度です。
	DefaultGeminiTemperature = float32(0.7)
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体です。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	AutosavePath     string
	HTTPTimeout      time.Duration
}

// LoadConfig は環境変数から設定を読み込み、構造体を返します。
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		AutosavePath:     envutil.GetEnv("COMIC_STUDIO_DB", DefaultAutosavePath),
		HTTPTimeout:      DefaultHTTPTimeout,
	}
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータです。
type GenerateOptions struct {
	ProjectName string // --project
	Format      string // --format
	Style       string // --style
	Template    string // --template
	CustomRows  []int  // --rows

	PageMode  string // --page-mode
	ColorMode string // --color-mode

	AutoWrite bool   // --auto-write
	Outline   string // --outline
	Choice    int    // --choice

	AIModel    string // --model
	ImageModel string // --image-model
}
