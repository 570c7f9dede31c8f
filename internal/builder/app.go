// Package builder はアプリケーション実行に必要な依存関係の組み立てを行います。
package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-http-kit/httpkit"
	"google.golang.org/genai"

	"github.com/shouni/go-comic-studio/internal/config"
	"github.com/shouni/go-comic-studio/pkg/adapters"
	"github.com/shouni/go-comic-studio/pkg/orchestrator"
	"github.com/shouni/go-comic-studio/pkg/session"
	"github.com/shouni/go-comic-studio/pkg/storage"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持します。
// これを各コマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config       *config.Config
	Store        storage.BlobStore
	Orchestrator *orchestrator.Orchestrator

	aiClient   gemini.GenerativeModel
	rawClient  *genai.Client
	httpClient httpkit.ClientInterface
}

// NewAppContext は共通クライアント群とワークフローを組み立てます。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("環境変数 GEMINI_API_KEY が設定されていません")
	}

	httpClient := httpkit.New(cfg.HTTPTimeout)

	aiClient, err := InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	rawClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genaiクライアントの初期化に失敗しました: %w", err)
	}

	synth, err := adapters.NewGeminiSynthesizer(httpClient, aiClient, rawClient, cfg.GeminiImageModel)
	if err != nil {
		return nil, err
	}

	continuator, err := adapters.NewGeminiContinuator(aiClient, rawClient, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}

	store, err := storage.OpenSQLite(cfg.AutosavePath)
	if err != nil {
		return nil, fmt.Errorf("自動保存ストアを開けませんでした: %w", err)
	}

	return &AppContext{
		Config:       cfg,
		Store:        store,
		Orchestrator: orchestrator.New(synth, continuator, adapters.NewHTTPFetcher(httpClient)),
		aiClient:     aiClient,
		rawClient:    rawClient,
		httpClient:   httpClient,
	}, nil
}

// LoadOrNewSession は自動保存から復元し、なければ新規セッションを作ります。
func (a *AppContext) LoadOrNewSession(ctx context.Context, fresh func() (*session.Session, error)) (*session.Session, error) {
	s, err := session.LoadFrom(ctx, a.Store)
	if err != nil {
		return nil, fmt.Errorf("自動保存の復元に失敗しました: %w", err)
	}
	if s != nil {
		slog.Info("自動保存から作業状態を復元しました", "pages", len(s.Pages))
		return s, nil
	}
	return fresh()
}

// Close は保持しているリソースを解放します。
func (a *AppContext) Close() error {
	return a.Store.Close()
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(config.DefaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}
