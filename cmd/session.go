package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-studio/pkg/layout"
	"github.com/shouni/go-comic-studio/pkg/session"
)

var (
	flagExportOut     string
	flagExportNoPages bool
)

// sessionCmd は作業状態の表示・交換・初期化を行うコマンド群です。
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "作業状態の表示とエクスポート・インポートを行います。",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "現在の作業状態の概要を表示します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			fmt.Printf("作品: %s (%s / %s)\n", sess.Project.Name, sess.Project.Format, sess.Project.Style)
			fmt.Printf("レイアウト: %s (%d コマ)\n", sess.Template.ID, sess.ResolvedLayout().PanelCount)
			fmt.Printf("台帳: キャラクター %d / 物品 %d / 関係 %d\n",
				len(sess.Registry.Characters()), len(sess.Registry.Assets()), len(sess.Registry.Relationships()))
			fmt.Printf("確定ページ: %d 枚\n", len(sess.Pages))
			fmt.Printf("シード: %d (固定=%v)\n", sess.Seed.Value, sess.Seed.Locked)
			printScenes(sess)
			return nil
		})
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export",
	Short: "作業状態をJSONファイルへ書き出します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			data, err := sess.Export(session.ExportOptions{
				Characters:    true,
				Assets:        true,
				Relationships: true,
				Pages:         !flagExportNoPages,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(flagExportOut, data, 0644); err != nil {
				return fmt.Errorf("エクスポートの書き出しに失敗しました: %w", err)
			}
			fmt.Printf("エクスポートしました: %s\n", flagExportOut)
			return nil
		})
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <ファイル>",
	Short: "JSONファイルから作業状態を読み込み、自動保存を置き換えます。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		appCtx, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer appCtx.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("インポートファイルの読み込みに失敗しました: %w", err)
		}
		sess, err := session.Import(data)
		if err != nil {
			return err
		}
		if err := sess.SaveTo(ctx, appCtx.Store); err != nil {
			return fmt.Errorf("自動保存に失敗しました: %w", err)
		}
		fmt.Printf("インポートしました: 作品 %q、ページ %d 枚\n", sess.Project.Name, len(sess.Pages))
		return nil
	},
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "フラグの作品設定で新しいセッションを開始し、自動保存を置き換えます。",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		appCtx, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer appCtx.Close()

		sess, err := newSessionFromFlags()
		if err != nil {
			return err
		}
		if err := sess.SaveTo(ctx, appCtx.Store); err != nil {
			return fmt.Errorf("自動保存に失敗しました: %w", err)
		}
		fmt.Printf("新しいセッションを開始しました: %s\n", sess.Project.Name)
		return nil
	},
}

var sessionSeedCmd = &cobra.Command{
	Use:   "seed <lock|unlock|roll>",
	Short: "世界観シードの固定・解除・振り直しを行います。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			switch args[0] {
			case "lock":
				sess.Seed.Lock()
			case "unlock":
				sess.Seed.Unlock()
			case "roll":
				sess.Seed.Unlock()
				sess.Seed.Roll()
			default:
				return fmt.Errorf("未知の操作です: %q", args[0])
			}
			fmt.Printf("シード: %d (固定=%v)\n", sess.Seed.Value, sess.Seed.Locked)
			return nil
		})
	},
}

var sessionLayoutCmd = &cobra.Command{
	Use:   "layout <テンプレートID>",
	Short: "コマ割りテンプレートを切り替えます。シーンセットは同期して伸縮します。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			return selectLayout(sess, args[0])
		})
	},
}

func init() {
	sessionExportCmd.Flags().StringVar(&flagExportOut, "out", "comic-session.json", "書き出し先のファイルパスです。")
	sessionExportCmd.Flags().BoolVar(&flagExportNoPages, "no-pages", false, "確定ページを除外して書き出します。")

	sessionCmd.AddCommand(sessionShowCmd, sessionExportCmd, sessionImportCmd, sessionNewCmd, sessionSeedCmd, sessionLayoutCmd)
}

// selectLayout はテンプレートIDを検証してセッションへ適用します。
// カスタムレイアウトの行構成はグローバルの --rows フラグから受け取ります。
func selectLayout(sess *session.Session, id string) error {
	tpl, ok := layout.FindTemplate(id)
	if !ok {
		return fmt.Errorf("未知のテンプレートIDです: %q", id)
	}
	if err := sess.SelectTemplate(tpl, layout.RowConfig(opts.CustomRows)); err != nil {
		return err
	}
	fmt.Printf("レイアウトを切り替えました: %s (%d コマ)\n", tpl.ID, sess.ResolvedLayout().PanelCount)
	return nil
}
