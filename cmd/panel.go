package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-studio/internal/builder"
	"github.com/shouni/go-comic-studio/pkg/session"
)

// panelCmd はシーンセットを手動で編集するためのコマンド群です。
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "シーンセットのコマを手動で編集します。",
}

var panelSetCmd = &cobra.Command{
	Use:   "set <コマ番号> <内容>",
	Short: "コマの内容を書き換えます。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			sc, err := panelByNumber(sess, args[0])
			if err != nil {
				return err
			}
			return sess.Scenes.SetDescription(sc, args[1])
		})
	},
}

var panelShotCmd = &cobra.Command{
	Use:   "shot <コマ番号> <镜头>",
	Short: "コマのカメラショットを固定語彙から選びます。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			sc, err := panelByNumber(sess, args[0])
			if err != nil {
				return err
			}
			return sess.Scenes.SetCameraShot(sc, args[1])
		})
	},
}

var panelCastCmd = &cobra.Command{
	Use:   "cast <コマ番号> <名前>",
	Short: "指名キャラクターのコマへの出場を切り替えます。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			sc, err := panelByNumber(sess, args[0])
			if err != nil {
				return err
			}
			ent, ok := sess.Registry.FindCharacterByName(args[1])
			if !ok {
				return fmt.Errorf("名前 %q のエンティティが台帳に見つかりません", args[1])
			}
			return sess.Scenes.ToggleEntity(sc, ent.ID, ent.Kind)
		})
	},
}

var panelShowCmd = &cobra.Command{
	Use:   "show",
	Short: "現在のシーンセットを表示します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			printScenes(sess)
			return nil
		})
	},
}

func init() {
	panelCmd.AddCommand(panelSetCmd, panelShotCmd, panelCastCmd, panelShowCmd)
}

// withSession はセッションの復元・操作・自動保存の定型をまとめます。
func withSession(cmd *cobra.Command, fn func(*session.Session) error) error {
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
	if err := fn(sess); err != nil {
		return err
	}
	if err := sess.SaveTo(ctx, appCtx.Store); err != nil {
		return fmt.Errorf("自動保存に失敗しました: %w", err)
	}
	return nil
}

// withAppSession は Orchestrator を使う操作向けに AppContext ごと渡す変種です。
func withAppSession(cmd *cobra.Command, fn func(*builder.AppContext, *session.Session) error) error {
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
	if err := fn(appCtx, sess); err != nil {
		return err
	}
	if err := sess.SaveTo(ctx, appCtx.Store); err != nil {
		return fmt.Errorf("自動保存に失敗しました: %w", err)
	}
	return nil
}

// panelByNumber は1始まりのコマ番号をシーンIDへ解決します。
func panelByNumber(sess *session.Session, arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "", fmt.Errorf("コマ番号 %q を解釈できません", arg)
	}
	scenes := sess.Scenes.Scenes()
	if n < 1 || n > len(scenes) {
		return "", fmt.Errorf("コマ番号 %d は範囲外です (1〜%d)", n, len(scenes))
	}
	return scenes[n-1].ID, nil
}

func printScenes(sess *session.Session) {
	for i, sc := range sess.Scenes.Scenes() {
		cast := "（无人）"
		if len(sc.CharacterIDs) > 0 {
			names := make([]string, 0, len(sc.CharacterIDs))
			for _, id := range sc.CharacterIDs {
				if ent, ok := sess.Registry.FindByID(id); ok {
					names = append(names, ent.Name)
				}
			}
			cast = strings.Join(names, "、")
		}
		fmt.Printf("第 %d 格 [%s] %s  出场: %s\n", i+1, sc.CameraShot, sc.Description, cast)
	}
}
