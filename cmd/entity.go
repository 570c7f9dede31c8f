package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-comic-studio/internal/builder"
	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/prompts"
	"github.com/shouni/go-comic-studio/pkg/session"
)

var (
	flagEntityKind   string
	flagEntityPrompt string
	flagEntityURL    string
	flagDesignOut    string
)

// entityCmd はキャラクター・物品台帳を操作するコマンド群です。
var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "キャラクターと物品の台帳を管理します。",
}

var entityAddCmd = &cobra.Command{
	Use:   "add <名前>",
	Short: "台帳にエンティティを追加します。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			var ent domain.Entity
			switch flagEntityKind {
			case "character":
				ent = sess.Registry.AddCharacter(args[0], flagEntityPrompt, flagEntityURL)
			case "asset":
				ent = sess.Registry.AddAsset(args[0], flagEntityPrompt, flagEntityURL)
			default:
				return fmt.Errorf("未知の種別です: %q (character / asset)", flagEntityKind)
			}
			fmt.Printf("[%s] %q を追加しました (id=%s)\n", ent.TypeLabel(), ent.Name, ent.ID)
			return nil
		})
	},
}

var entityListCmd = &cobra.Command{
	Use:   "list",
	Short: "台帳の内容と関係を一覧します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			for _, ent := range sess.Registry.All() {
				fmt.Printf("[%s] %s  id=%s  ref=%s\n", ent.TypeLabel(), ent.Name, ent.ID, ent.ReferenceURL)
			}
			for _, fact := range sess.Registry.RelationshipFacts(sess.Registry.Relationships()) {
				fmt.Printf("  关系: %s\n", fact)
			}
			return nil
		})
	},
}

var entityDeleteCmd = &cobra.Command{
	Use:   "delete <名前またはID>",
	Short: "エンティティを台帳から削除し、全シーンから出場を取り除きます。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			ent, err := resolveEntity(sess, args[0])
			if err != nil {
				return err
			}
			impact, err := sess.DeleteEntity(ent.ID)
			if err != nil {
				return err
			}
			fmt.Printf("%q を削除しました（関係 %d 件を同時に削除）。\n", ent.Name, impact.RelationshipsRemoved)
			if impact.PagesMentioningName > 0 {
				fmt.Printf("注意: 確定済みの %d ページの物語テキストに %q への言及が残っています。\n", impact.PagesMentioningName, ent.Name)
			}
			return nil
		})
	},
}

var entityRelateCmd = &cobra.Command{
	Use:   "relate <名前A> <関係の説明> <名前B>",
	Short: "2つのエンティティの関係事実を登録します。",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			a, err := resolveEntity(sess, args[0])
			if err != nil {
				return err
			}
			b, err := resolveEntity(sess, args[2])
			if err != nil {
				return err
			}
			rel, err := sess.Registry.AddRelationship(a.ID, b.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("関係を登録しました (id=%s)\n", rel.ID)
			return nil
		})
	},
}

var entityDesignCmd = &cobra.Command{
	Use:   "design <名前>",
	Short: "エンティティの設定画をAIで生成して保存します。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAppSession(cmd, func(appCtx *builder.AppContext, sess *session.Session) error {
			ent, err := resolveEntity(sess, args[0])
			if err != nil {
				return err
			}

			prompt := prompts.BuildReferencePrompt(ent.Kind, ent.Name, ent.CorePrompt, sess.Project)
			img, err := appCtx.Orchestrator.GenerateEntityReference(cmd.Context(), prompt)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(flagDesignOut, 0755); err != nil {
				return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
			}
			path := filepath.Join(flagDesignOut, fmt.Sprintf("ref-%s%s", ent.Name, preferredExtension(img.MimeType)))
			if err := os.WriteFile(path, img.Data, 0644); err != nil {
				return fmt.Errorf("設定画の保存に失敗しました: %w", err)
			}

			fmt.Printf("設定画を保存しました: %s\n", path)
			fmt.Println("公開URLにアップロードした後、entity url コマンドで台帳に登録してください。")
			return nil
		})
	},
}

var entityURLCmd = &cobra.Command{
	Use:   "url <名前またはID> <参照画像URL>",
	Short: "エンティティの参照画像URLを登録・更新します。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(sess *session.Session) error {
			ent, err := resolveEntity(sess, args[0])
			if err != nil {
				return err
			}
			return sess.Registry.Update(ent.ID, ent.Name, ent.CorePrompt, args[1])
		})
	},
}

func init() {
	entityAddCmd.Flags().StringVar(&flagEntityKind, "kind", "character", "種別です (character / asset)。")
	entityAddCmd.Flags().StringVar(&flagEntityPrompt, "prompt", "", "外見の核となる特徴プロンプトです。")
	entityAddCmd.Flags().StringVar(&flagEntityURL, "url", "", "参照画像のURLです。")
	entityDesignCmd.Flags().StringVar(&flagDesignOut, "out-dir", "output", "設定画の保存先ディレクトリです。")

	entityCmd.AddCommand(entityAddCmd, entityListCmd, entityDeleteCmd, entityRelateCmd, entityDesignCmd, entityURLCmd)
}

// resolveEntity は名前またはIDでエンティティを特定します。名前は最初の一致が勝ちます。
func resolveEntity(sess *session.Session, nameOrID string) (domain.Entity, error) {
	if ent, ok := sess.Registry.FindByID(nameOrID); ok {
		return ent, nil
	}
	// 名前での検索はキャラクターに限らず台帳全体を登録順で当たります
	for _, ent := range sess.Registry.All() {
		if strings.EqualFold(ent.Name, nameOrID) {
			return ent, nil
		}
	}
	return domain.Entity{}, fmt.Errorf("エンティティ %q が台帳に見つかりません", nameOrID)
}
