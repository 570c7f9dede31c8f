package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagStoryOutline string
	flagContextPage  string
)

// continueCmd は、画像生成を行わずにシーンセットの自動執筆だけを実行します。
// 結果を確認・手直ししてから generate にかける使い方を想定しています。
var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "AIにシーンセットの続きを執筆させます。",
	RunE:  continueCommand,
}

func init() {
	continueCmd.Flags().StringVar(&flagStoryOutline, "outline", "", "このページの大筋です。")
	continueCmd.Flags().StringVar(&flagContextPage, "context-page", "", "「このページの続き」として使う確定ページのIDです。")
}

func continueCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	appCtx, err := newAppContext(ctx)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	sess, err := loadSession(ctx, appCtx)
	if err != nil {
		return err
	}
	if flagStoryOutline != "" {
		sess.PageOutline = flagStoryOutline
	}
	if flagContextPage != "" {
		if _, ok := sess.FindPage(flagContextPage); !ok {
			return fmt.Errorf("ページID %s が見つかりません", flagContextPage)
		}
		sess.ContextPageID = flagContextPage
	}

	if err := appCtx.Orchestrator.AutoWrite(ctx, sess); err != nil {
		return err
	}
	if err := sess.SaveTo(ctx, appCtx.Store); err != nil {
		return fmt.Errorf("自動保存に失敗しました: %w", err)
	}

	printScenes(sess)
	return nil
}
