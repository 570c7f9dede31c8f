// Package cmd はインタラクティブ漫画制作ツールの CLI を定義します。
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-studio/internal/builder"
	"github.com/shouni/go-comic-studio/internal/config"
	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/layout"
	"github.com/shouni/go-comic-studio/pkg/session"
)

var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:   "comic-studio",
	Short: "AIと共作するインタラクティブ漫画制作ツールです。",
	Long: `キャラクター台帳・コマ割りレイアウト・シーンセットを管理し、
継続エンジンとプロンプト編纂を通じてページ画像を1枚ずつ確定させていくツールです。
作業状態は常に自動保存され、次回起動時に復元されます。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, continueCmd, panelCmd, entityCmd, pageCmd, sessionCmd)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義します。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 作品設定（新規セッション時のみ使用） ---
	rootCmd.PersistentFlags().StringVar(&opts.ProjectName, "project", "無題の作品", "作品名です。自動保存がないときの新規作成に使います。")
	rootCmd.PersistentFlags().StringVar(&opts.Format, "format", string(domain.FormatPage), "作品の判型です (page / webtoon)。")
	rootCmd.PersistentFlags().StringVar(&opts.Style, "style", string(domain.StyleJapaneseShonen), "作品の画風です (JAPANESE_SHONEN など)。")
	rootCmd.PersistentFlags().StringVar(&opts.Template, "template", "grid-4", "コマ割りテンプレートIDです。")
	rootCmd.PersistentFlags().IntSliceVar(&opts.CustomRows, "rows", nil, "カスタムレイアウトの行ごとのコマ数です (例: 2,3,1)。")

	// --- AIモデル設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "物語継続に使う Gemini モデル名です。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "画像生成に使う Gemini モデル名です。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行います。
func preRunAppE(cmd *cobra.Command, args []string) error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません")
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントです。
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newAppContext は環境変数とフラグから AppContext を組み立てます。
func newAppContext(ctx context.Context) (*builder.AppContext, error) {
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	return builder.NewAppContext(ctx, cfg)
}

// loadSession は自動保存を復元し、なければフラグから新規セッションを作ります。
func loadSession(ctx context.Context, appCtx *builder.AppContext) (*session.Session, error) {
	return appCtx.LoadOrNewSession(ctx, func() (*session.Session, error) {
		return newSessionFromFlags()
	})
}

func newSessionFromFlags() (*session.Session, error) {
	style := domain.DrawingStyle(opts.Style)
	if !style.Valid() {
		return nil, fmt.Errorf("未知の画風です: %q", opts.Style)
	}

	format := domain.Format(opts.Format)
	if format != domain.FormatPage && format != domain.FormatWebtoon {
		return nil, fmt.Errorf("未知の判型です: %q", opts.Format)
	}

	tpl, ok := layout.FindTemplate(opts.Template)
	if !ok {
		return nil, fmt.Errorf("未知のテンプレートIDです: %q", opts.Template)
	}

	project := domain.NewProject(opts.ProjectName, format, style)
	return session.New(project, tpl, layout.RowConfig(opts.CustomRows))
}
