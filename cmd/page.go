package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-studio/internal/builder"
	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/session"
)

var (
	flagMaskFile   string
	flagRefFile    string
	flagCanvasFile string
	flagExtendMode string
	flagPageOutDir string
)

// pageCmd は確定済みページの操作（修正・外挿・削除）を行うコマンド群です。
var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "確定済みページを管理します。",
}

var pageListCmd = &cobra.Command{
	Use:   "list",
	Short: "確定済みページを一覧します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			for _, p := range sess.Pages {
				fmt.Printf("第 %d 页  id=%s  mode=%s  %dバイト\n", p.Number, p.ID, p.Mode, len(p.ImageData))
			}
			return nil
		})
	},
}

var pageEditCmd = &cobra.Command{
	Use:   "edit <ページID> <修正指令>",
	Short: "確定済みページにマスク指定の部分修正をかけます。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAppSession(cmd, func(appCtx *builder.AppContext, sess *session.Session) error {
			mask, err := readOptionalFile(flagMaskFile)
			if err != nil {
				return err
			}
			ref, err := readOptionalFile(flagRefFile)
			if err != nil {
				return err
			}
			if err := appCtx.Orchestrator.EditPage(cmd.Context(), sess, args[0], args[1], mask, ref); err != nil {
				return err
			}
			return writePageImage(sess, args[0])
		})
	},
}

var pageExtendCmd = &cobra.Command{
	Use:   "extend <ページID>",
	Short: "確定済みページを拡大キャンバスへ外挿します（単ページの見開き化など）。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAppSession(cmd, func(appCtx *builder.AppContext, sess *session.Session) error {
			if flagCanvasFile == "" {
				return fmt.Errorf("--canvas で元画像を配置済みの拡大キャンバスを指定してください")
			}
			canvas, err := os.ReadFile(flagCanvasFile)
			if err != nil {
				return fmt.Errorf("キャンバス画像の読み込みに失敗しました: %w", err)
			}
			mask, err := readOptionalFile(flagMaskFile)
			if err != nil {
				return err
			}

			newMode := domain.PageMode(flagExtendMode)
			if newMode != domain.PageModeSingle && newMode != domain.PageModeSpread {
				return fmt.Errorf("未知のページ形態です: %q", flagExtendMode)
			}

			if err := appCtx.Orchestrator.ExtendPage(cmd.Context(), sess, args[0], canvas, mask, newMode); err != nil {
				return err
			}
			return writePageImage(sess, args[0])
		})
	},
}

var pageDeleteCmd = &cobra.Command{
	Use:   "delete <ページID>",
	Short: "確定済みページを削除し、以降のページ番号を詰めます。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			return sess.DeletePage(args[0])
		})
	},
}

func init() {
	pageEditCmd.Flags().StringVar(&flagMaskFile, "mask", "", "修正範囲のマスク画像ファイルです。")
	pageEditCmd.Flags().StringVar(&flagRefFile, "ref", "", "修正の手がかりにする参照画像ファイルです。")
	pageExtendCmd.Flags().StringVar(&flagCanvasFile, "canvas", "", "元画像を配置済みの拡大キャンバス画像ファイルです。")
	pageExtendCmd.Flags().StringVar(&flagMaskFile, "mask", "", "描き足す空白領域のマスク画像ファイルです。")
	pageExtendCmd.Flags().StringVar(&flagExtendMode, "mode", string(domain.PageModeSpread), "外挿後のページ形態です (single / spread)。")
	pageCmd.PersistentFlags().StringVar(&flagPageOutDir, "out-dir", "output", "更新後のページ画像の保存先ディレクトリです。")

	pageCmd.AddCommand(pageListCmd, pageEditCmd, pageExtendCmd, pageDeleteCmd)
}

func readOptionalFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ファイルの読み込みに失敗しました: %w", err)
	}
	return data, nil
}

// writePageImage は更新後のページ画像をディスクへ書き出します。
func writePageImage(sess *session.Session, pageID string) error {
	page, ok := sess.FindPage(pageID)
	if !ok {
		return fmt.Errorf("ページID %s が見つかりません", pageID)
	}
	if err := os.MkdirAll(flagPageOutDir, 0755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	path := filepath.Join(flagPageOutDir, fmt.Sprintf("page-%03d%s", page.Number, preferredExtension(page.MimeType)))
	if err := os.WriteFile(path, page.ImageData, 0644); err != nil {
		return fmt.Errorf("ページ画像の保存に失敗しました: %w", err)
	}
	fmt.Printf("ページ画像を更新しました: %s\n", path)
	return nil
}
