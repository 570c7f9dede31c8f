// Package continuity はAIによる物語の自動継続を編成します。
// 許可キャラクタープール・コマごとのプリセット・関係事実で生成要求を制約し、
// 構造化応答をシーンセットへ書き戻せる形に決定論的に整形（reconcile）します。
package continuity

import (
	"context"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

// Request は TextContinuator へ渡す構造化された継続生成要求です。
type Request struct {
	// PriorStory はこれまでの物語テキストです。ContextStory が指定された場合はそちらが優先されます。
	PriorStory string
	// ContextStory は「このページの続き」として明示指定されたページの物語テキストです。
	ContextStory string
	// PageOutline はユーザーが書いた今回のページの大筋です。
	PageOutline string

	PanelCount        int
	LayoutDescription string
	CameraShots       []string

	// PoolNames は出場を許可するキャラクター名の一覧です。空なら誰も登場できません。
	PoolNames []string
	// RelationshipFacts は物語に反映させる自然言語の関係事実です。
	RelationshipFacts []string
	// PanelPresets はコマ番号（0始まり）→そのコマに必ず登場させる名前の一覧です。
	PanelPresets map[int][]string

	// ContextImage は任意の文脈画像（直前ページ等）です。
	ContextImage []byte
}

// PanelPlan は TextContinuator が返すコマ1つ分の草案です。
// カメラショットは固定語彙から選ばれることになっていますが、
// 実際の応答は信用せず reconcile 側で必ず検証します。
type PanelPlan struct {
	Description    string   `json:"description"`
	CameraShot     string   `json:"camera_shot"`
	CharacterNames []string `json:"character_names"`
}

// TextContinuator は構造化された物語継続を行う外部能力の抽象です。
type TextContinuator interface {
	Continue(ctx context.Context, req Request) ([]PanelPlan, error)
}

// ReconciledPanel はシーンセットへ書き戻す確定済みのコマ内容です。
type ReconciledPanel struct {
	Description  string
	CameraShot   string
	CharacterIDs []string
}

// NameResolver は表示名をエンティティIDへ解決する参照です。
// 解決できない名前は (zero, false) を返します。
type NameResolver interface {
	FindCharacterByName(name string) (domain.Entity, bool)
	FindByID(id string) (domain.Entity, bool)
	Characters() []domain.Entity
}

// FallbackNarrative は応答が解釈不能だったときに第1コマへ挿入する定型文です。
// 本物の生成結果と取り違えないよう、意図的に素朴な文言にしています。
const FallbackNarrative = "主角停顿了片刻，一时不知道接下来该做什么。"
