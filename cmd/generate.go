package cmd

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/orchestrator"
)

var (
	flagAutoWrite bool
	flagOutline   string
	flagPageMode  string
	flagColorMode string
	flagChoice    int
	flagOutDir    string
)

// generateCmd は、現在のシーンセットから次のページ候補を生成して確定します。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "シーンセットから次のページ画像を生成します。",
	Long: `シーンセットの内容をプロンプトに編纂し、参照画像を収集してページ候補を2枚生成します。
--choice で候補を選ぶと確定ページとして追加され、シーンセットは空白に戻ります。
--choice -1 の場合は候補の保存だけを行い、確定しません。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().BoolVar(&flagAutoWrite, "auto-write", false, "生成前に継続エンジンでシーンを自動執筆します。")
	generateCmd.Flags().StringVar(&flagOutline, "outline", "", "このページの大筋です（自動執筆時に使われます）。")
	generateCmd.Flags().StringVar(&flagPageMode, "page-mode", string(domain.PageModeSingle), "ページ形態です (single / spread)。")
	generateCmd.Flags().StringVar(&flagColorMode, "color-mode", string(domain.ColorModeColor), "色彩指定です (color / bw)。")
	generateCmd.Flags().IntVar(&flagChoice, "choice", 0, "確定する候補番号です。-1 で確定しません。")
	generateCmd.Flags().StringVar(&flagOutDir, "out-dir", "output", "候補画像と確定ページの保存先ディレクトリです。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pageMode := domain.PageMode(flagPageMode)
	if pageMode != domain.PageModeSingle && pageMode != domain.PageModeSpread {
		return fmt.Errorf("未知のページ形態です: %q", flagPageMode)
	}
	colorMode := domain.ColorMode(flagColorMode)
	if colorMode != domain.ColorModeColor && colorMode != domain.ColorModeBW {
		return fmt.Errorf("未知の色彩指定です: %q", flagColorMode)
	}

	appCtx, err := newAppContext(ctx)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	sess, err := loadSession(ctx, appCtx)
	if err != nil {
		return err
	}
	if flagOutline != "" {
		sess.PageOutline = flagOutline
	}

	slog.Info("ページ生成を開始します",
		"project", sess.Project.Name,
		"panels", sess.Scenes.PanelCount(),
		"auto_write", flagAutoWrite)

	res, err := appCtx.Orchestrator.Generate(ctx, sess, orchestrator.GenerateOptions{
		AutoWrite: flagAutoWrite,
		PageMode:  pageMode,
		ColorMode: colorMode,
	})
	if err != nil {
		return fmt.Errorf("ページ生成に失敗しました: %w", err)
	}

	if err := os.MkdirAll(flagOutDir, 0755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	for i, cand := range res.Candidates {
		path := filepath.Join(flagOutDir, fmt.Sprintf("candidate-%d%s", i+1, preferredExtension(cand.Image.MimeType)))
		if err := os.WriteFile(path, cand.Image.Data, 0644); err != nil {
			return fmt.Errorf("候補画像の保存に失敗しました: %w", err)
		}
		if cand.Placeholder {
			fmt.Printf("候補 %d: 生成失敗 (%s) -> %s\n", i+1, cand.FailureReason, path)
		} else {
			fmt.Printf("候補 %d: %s\n", i+1, path)
		}
	}

	if flagChoice < 0 {
		fmt.Println("確定は行いませんでした。--choice で候補を選んで再実行してください。")
		return nil
	}

	page, err := appCtx.Orchestrator.Commit(sess, res, flagChoice)
	if err != nil {
		return fmt.Errorf("候補の確定に失敗しました: %w", err)
	}
	if err := sess.SaveTo(ctx, appCtx.Store); err != nil {
		return fmt.Errorf("自動保存に失敗しました: %w", err)
	}

	pagePath := filepath.Join(flagOutDir, fmt.Sprintf("page-%03d%s", page.Number, preferredExtension(page.MimeType)))
	if err := os.WriteFile(pagePath, page.ImageData, 0644); err != nil {
		return fmt.Errorf("確定ページの保存に失敗しました: %w", err)
	}

	slog.Info("ページを確定して保存しました", "page", page.Number, "path", pagePath, "seed", sess.Seed.Value)
	return nil
}

// preferredExtension は MIME タイプに対応する保存用の拡張子を返します。
func preferredExtension(mimeType string) string {
	if mimeType == "image/svg+xml" {
		return ".svg"
	}
	extensions, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(extensions) == 0 {
		return ".png"
	}
	return extensions[0]
}
