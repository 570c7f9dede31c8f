// Package prompts はシーンセット・エンティティ台帳・作品設定から、
// 画像生成バックエンドに渡す最終プロンプト文字列を純関数として編纂します。
package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/layout"
)

// EntityRef は参照画像マニフェストの1項目です。Index はプロンプト本文中の
// 「参考图 N」と同じ1始まりの安定した番号です。
type EntityRef struct {
	Entity domain.Entity
	Index  int
}

// Input はプロンプト編纂の入力一式です。すべて値として受け取り、副作用を持ちません。
type Input struct {
	Scenes    []domain.Scene
	Entities  []domain.Entity // レジストリの登録順そのままの全エンティティ
	Project   domain.Project
	PageMode  domain.PageMode
	ColorMode domain.ColorMode
	Layout    layout.Resolved
}

// Output は編纂結果です。Prompt は同一入力に対して常にバイト単位で同一です。
type Output struct {
	Prompt   string
	Manifest []EntityRef
}

// Compile は最終プロンプトと参照画像マニフェストを編纂します。
//
// マニフェストにはいずれかのシーンに割り当てられたエンティティのみが載り、
// 出場キャラクター（登録順）→出場アセット（登録順）の順で1始まりの番号が振られます。
// シーンに割り当てられたまま台帳から消えたIDは黙ってスキップします。
func Compile(in Input) Output {
	manifest := buildManifest(in.Scenes, in.Entities)

	indexByID := make(map[string]int, len(manifest))
	nameByID := make(map[string]string, len(manifest))
	for _, ref := range manifest {
		indexByID[ref.Entity.ID] = ref.Index
		nameByID[ref.Entity.ID] = ref.Entity.Name
	}

	blocks := []string{
		aspectBlock(in.Project.Format, in.PageMode),
		castSheetBlock(manifest),
		taskBlock(in.Project.Format, in.PageMode),
		styleBlock(in.Project, in.ColorMode),
		noTextDirective,
		layoutBlock(in.Layout),
		panelBlock(in.Scenes, indexByID, nameByID),
		selfCheck,
	}

	// 空白の連続を単一スペースに正規化して1本の文字列に畳み込む
	joined := strings.Join(blocks, " ")
	prompt := strings.Join(strings.Fields(joined), " ")

	return Output{Prompt: prompt, Manifest: manifest}
}

// Manifest は出場エンティティ集合だけを対象に、Compile と同じ規則で
// 参照画像マニフェストを計算します。参照画像の収集を編纂より先に行う
// 編成側のために公開しています。
func Manifest(scenes []domain.Scene, entities []domain.Entity) []EntityRef {
	return buildManifest(scenes, entities)
}

// buildManifest は出場エンティティ集合を割り出し、安定した参照番号を振ります。
func buildManifest(scenes []domain.Scene, entities []domain.Entity) []EntityRef {
	appearing := make(map[string]struct{})
	for _, sc := range scenes {
		for _, id := range sc.CharacterIDs {
			appearing[id] = struct{}{}
		}
		for _, id := range sc.AssetIDs {
			appearing[id] = struct{}{}
		}
	}

	var manifest []EntityRef
	index := 1
	// 出場キャラクターを登録順で先に、その後に出場アセットを登録順で
	for _, kind := range []domain.EntityKind{domain.KindCharacter, domain.KindAsset} {
		for _, e := range entities {
			if e.Kind != kind {
				continue
			}
			if _, ok := appearing[e.ID]; !ok {
				continue
			}
			manifest = append(manifest, EntityRef{Entity: e, Index: index})
			index++
		}
	}
	return manifest
}

func aspectBlock(format domain.Format, mode domain.PageMode) string {
	if format == domain.FormatWebtoon {
		return aspectWebtoon
	}
	if mode == domain.PageModeSpread {
		return aspectLandscape
	}
	return aspectPortrait
}

func taskBlock(format domain.Format, mode domain.PageMode) string {
	if format == domain.FormatWebtoon {
		return taskWebtoon
	}
	if mode == domain.PageModeSpread {
		return taskSpread
	}
	return taskSinglePage
}

func styleBlock(project domain.Project, colorMode domain.ColorMode) string {
	color := colorColor
	if colorMode == domain.ColorModeBW {
		color = colorBW
	}
	return fmt.Sprintf("【画风】%s。 %s", project.StylePrompt, color)
}

func castSheetBlock(manifest []EntityRef) string {
	var sb strings.Builder
	sb.WriteString(castSheetHeader)
	if len(manifest) == 0 {
		sb.WriteString(" ")
		sb.WriteString(noReference)
		return sb.String()
	}
	for _, ref := range manifest {
		sb.WriteString(fmt.Sprintf(" 参考图 %d: [%s] %q", ref.Index, ref.Entity.TypeLabel(), ref.Entity.Name))
		if ref.Entity.CorePrompt != "" {
			sb.WriteString(fmt.Sprintf("，核心特征：%s", ref.Entity.CorePrompt))
		}
		sb.WriteString("。")
	}
	return sb.String()
}

func layoutBlock(res layout.Resolved) string {
	return fmt.Sprintf("【布局】本页共 %d 格。%s", res.PanelCount, res.Description)
}

// panelBlock はコマごとの内容行を編纂します。台帳で解決できないIDは行から黙って落とします。
func panelBlock(scenes []domain.Scene, indexByID map[string]int, nameByID map[string]string) string {
	var sb strings.Builder
	sb.WriteString("【分格内容】")
	for i, sc := range scenes {
		sb.WriteString(fmt.Sprintf(" 第 %d 格 [镜头: %s] %s", i+1, sc.CameraShot, sc.Description))
		if clause := castClause("出场角色", sc.CharacterIDs, indexByID, nameByID); clause != "" {
			sb.WriteString(" ")
			sb.WriteString(clause)
		}
		if clause := castClause("出场物品", sc.AssetIDs, indexByID, nameByID); clause != "" {
			sb.WriteString(" ")
			sb.WriteString(clause)
		}
	}
	return sb.String()
}

func castClause(label string, ids []string, indexByID map[string]int, nameByID map[string]string) string {
	var parts []string
	for _, id := range ids {
		idx, ok := indexByID[id]
		if !ok {
			continue // 台帳から消えた参照はエラーにせずスキップ
		}
		parts = append(parts, fmt.Sprintf("%q (参考图 %d)", nameByID[id], idx))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("[%s: %s]", label, strings.Join(parts, "、"))
}
