package continuity

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/layout"
	"github.com/shouni/go-comic-studio/pkg/registry"
)

// Engine は継続生成要求の組み立てと応答の整形を担います。
type Engine struct {
	registry    *registry.Registry
	continuator TextContinuator
}

// NewEngine は Engine を初期化します。
func NewEngine(reg *registry.Registry, continuator TextContinuator) *Engine {
	return &Engine{registry: reg, continuator: continuator}
}

// Input は1回の継続生成の入力一式です。
type Input struct {
	Scenes           []domain.Scene
	MainCharacterIDs []string // 空なら台帳の全キャラクターがプール
	MainAssetIDs     []string // 空なら台帳の全アセットが関係事実の対象
	PriorStory       string
	ContextStory     string
	PageOutline      string
	Layout           layout.Resolved
	ContextImage     []byte
}

// Continue は継続生成を実行し、シーンセットへ書き戻し可能なコマ列を返します。
//
// バックエンド呼び出しの失敗や解釈不能な応答は、第1コマに定型文を入れた
// 退行結果として返します。エラーとしては伝播させません。
func (e *Engine) Continue(ctx context.Context, in Input) []ReconciledPanel {
	pool := e.characterPool(in.MainCharacterIDs)

	req := e.buildRequest(in, pool)

	raw, err := e.continuator.Continue(ctx, req)
	if err != nil {
		slog.Warn("継続生成に失敗したため定型文へ退行します", "error", err)
		return fallbackPanels(in.Scenes)
	}

	return Reconcile(raw, in.Scenes, pool, e.registry)
}

// characterPool は許可キャラクタープールを確定します。
// 明示選択があればそのキャラクターのみ、なければ台帳の全キャラクターです。
// 台帳にキャラクターが一人もいなければ空プール（誰も登場できない）です。
func (e *Engine) characterPool(mainCharacterIDs []string) []domain.Entity {
	if len(mainCharacterIDs) == 0 {
		return e.registry.Characters()
	}
	var pool []domain.Entity
	for _, id := range mainCharacterIDs {
		if ent, ok := e.registry.FindByID(id); ok && ent.Kind == domain.KindCharacter {
			pool = append(pool, ent)
		}
	}
	return pool
}

func (e *Engine) buildRequest(in Input, pool []domain.Entity) Request {
	poolNames := make([]string, 0, len(pool))
	factIDs := make(map[string]struct{})
	for _, ent := range pool {
		poolNames = append(poolNames, ent.Name)
		factIDs[ent.ID] = struct{}{}
	}

	// 関係事実は選択されたキャラクター・アセット双方を端点に持つものだけに絞る
	assetIDs := in.MainAssetIDs
	if len(assetIDs) == 0 {
		for _, a := range e.registry.Assets() {
			factIDs[a.ID] = struct{}{}
		}
	} else {
		for _, id := range assetIDs {
			factIDs[id] = struct{}{}
		}
	}
	facts := e.registry.RelationshipFacts(e.registry.RelationshipsAmong(factIDs))

	presets := make(map[int][]string)
	for i, sc := range in.Scenes {
		if len(sc.CharacterIDs) == 0 {
			continue
		}
		var names []string
		for _, id := range sc.CharacterIDs {
			if ent, ok := e.registry.FindByID(id); ok {
				names = append(names, ent.Name)
			}
		}
		if len(names) > 0 {
			presets[i] = names
		}
	}

	return Request{
		PriorStory:        in.PriorStory,
		ContextStory:      in.ContextStory,
		PageOutline:       in.PageOutline,
		PanelCount:        len(in.Scenes),
		LayoutDescription: in.Layout.Description,
		CameraShots:       slices.Clone(domain.CameraShots),
		PoolNames:         poolNames,
		RelationshipFacts: facts,
		PanelPresets:      presets,
		ContextImage:      in.ContextImage,
	}
}

// Reconcile は生の応答を決定論的に整形します。
//
//   - 名前→IDの解決に失敗した名前は「登場なし」として黙って落とす
//   - プール外のキャラクターは除去する（プリセットのあるコマはプリセットが正）
//   - 語彙外のカメラショットは受理せず、そのコマの従来値を維持する
//   - 応答のコマ数が不足する場合は全記述を第1コマへ連結し、残りは空白にする
func Reconcile(raw []PanelPlan, scenes []domain.Scene, pool []domain.Entity, resolver NameResolver) []ReconciledPanel {
	poolIDs := make(map[string]struct{}, len(pool))
	for _, ent := range pool {
		poolIDs[ent.ID] = struct{}{}
	}

	if len(raw) < len(scenes) {
		slog.Warn("継続応答のコマ数が要求より少ないため第1コマへ統合します",
			"requested", len(scenes), "returned", len(raw))
		raw = mergeIntoFirstPanel(raw, len(scenes))
	}

	out := make([]ReconciledPanel, len(scenes))
	for i, sc := range scenes {
		plan := raw[i]

		shot := sc.CameraShot
		if domain.IsValidCameraShot(plan.CameraShot) {
			shot = plan.CameraShot
		} else if plan.CameraShot != "" {
			slog.Warn("語彙外のカメラショットを破棄します", "panel", i+1, "shot", plan.CameraShot)
		}

		var ids []string
		if len(sc.CharacterIDs) > 0 {
			// プリセットのあるコマは割り当てをそのまま正とする
			ids = slices.Clone(sc.CharacterIDs)
		} else {
			for _, name := range plan.CharacterNames {
				ent, ok := resolver.FindCharacterByName(strings.TrimSpace(name))
				if !ok {
					slog.Warn("解決できないキャラクター名を破棄します", "panel", i+1, "name", name)
					continue
				}
				if _, allowed := poolIDs[ent.ID]; !allowed {
					slog.Warn("プール外のキャラクターを破棄します", "panel", i+1, "name", name)
					continue
				}
				if !slices.Contains(ids, ent.ID) {
					ids = append(ids, ent.ID)
				}
			}
		}

		out[i] = ReconciledPanel{
			Description:  strings.TrimSpace(plan.Description),
			CameraShot:   shot,
			CharacterIDs: ids,
		}
	}
	return out
}

// mergeIntoFirstPanel は不足した応答を第1コマへ畳み込み、残りを空白コマで埋めます。
func mergeIntoFirstPanel(raw []PanelPlan, panelCount int) []PanelPlan {
	var descriptions []string
	for _, p := range raw {
		if d := strings.TrimSpace(p.Description); d != "" {
			descriptions = append(descriptions, d)
		}
	}

	merged := make([]PanelPlan, panelCount)
	if len(descriptions) > 0 {
		merged[0] = PanelPlan{Description: strings.Join(descriptions, " ")}
		if len(raw) > 0 {
			merged[0].CameraShot = raw[0].CameraShot
			merged[0].CharacterNames = raw[0].CharacterNames
		}
	}
	return merged
}

// fallbackPanels は解釈不能な応答に対する退行結果を組み立てます。
func fallbackPanels(scenes []domain.Scene) []ReconciledPanel {
	out := make([]ReconciledPanel, len(scenes))
	for i, sc := range scenes {
		out[i] = ReconciledPanel{CameraShot: sc.CameraShot}
	}
	if len(out) > 0 {
		out[0].Description = FallbackNarrative
	}
	return out
}
