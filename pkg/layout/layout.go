// Package layout はページのコマ割りテンプレートを解決し、
// プロンプトに埋め込むコマ数とレイアウト説明文を決定します。
package layout

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

// CustomTemplateID は行×列をユーザーが調整するカスタムテンプレートの固定IDです。
const CustomTemplateID = "custom"

// Template は名前付きのコマ割り定義です。Description はそのまま
// プロンプトに埋め込まれるため、文言の変更は生成結果に直結します。
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PanelCount  int    `json:"panel_count"`
	Description string `json:"description"`
	Custom      bool   `json:"custom"`
}

// RowConfig はカスタムテンプレートの行ごとの列数です。
type RowConfig []int

// Resolved はテンプレート解決の結果です。
type Resolved struct {
	PanelCount  int
	Description string
}

// fixedTemplates は組み込みのコマ割りカタログです。
var fixedTemplates = []Template{
	{ID: "single-1", Name: "整页单格", PanelCount: 1, Description: "整页只有一个大格，画面占满全页，适合冲击性的场面。"},
	{ID: "vertical-3", Name: "纵向三格", PanelCount: 3, Description: "三个横向长条格从上到下等高排列。"},
	{ID: "grid-4", Name: "田字四格", PanelCount: 4, Description: "2x2 的田字格布局，四格大小相同。"},
	{ID: "feature-5", Name: "主格五格", PanelCount: 5, Description: "上半页为一个大格，下半页为 2x2 的四个小格。"},
	{ID: "grid-6", Name: "六格网格", PanelCount: 6, Description: "3 行 x 2 列的六格网格，阅读顺序从上到下、从左到右。"},
	{ID: "webtoon-4", Name: "条漫四格", PanelCount: 4, Description: "四个全宽的格子沿竖直方向依次排列，格与格之间留有呼吸感的空白。"},
	{ID: CustomTemplateID, Name: "自定义", Custom: true},
}

// Templates は組み込みテンプレートのコピーを返します。
func Templates() []Template {
	out := make([]Template, len(fixedTemplates))
	copy(out, fixedTemplates)
	return out
}

// TemplatesFor は判型に適したテンプレートの一覧を返します。
// Webtoon では全幅縦並び以外のグリッドは推奨されないため除外します。
func TemplatesFor(format domain.Format) []Template {
	if format != domain.FormatWebtoon {
		var out []Template
		for _, t := range fixedTemplates {
			if t.ID != "webtoon-4" {
				out = append(out, t)
			}
		}
		return out
	}
	var out []Template
	for _, t := range fixedTemplates {
		if t.ID == "webtoon-4" || t.ID == "single-1" || t.Custom {
			out = append(out, t)
		}
	}
	return out
}

// FindTemplate はIDからテンプレートを検索します。
func FindTemplate(id string) (Template, bool) {
	for _, t := range fixedTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Validate はカスタム行設定の妥当性を検証します。最低1行、各行は最低1列です。
func (rc RowConfig) Validate() error {
	if len(rc) == 0 {
		return fmt.Errorf("自定义布局至少需要 1 行")
	}
	for i, cols := range rc {
		if cols < 1 {
			return fmt.Errorf("第 %d 行的列数必须大于等于 1（实际为 %d）", i+1, cols)
		}
	}
	return nil
}

// Resolve はテンプレートからコマ数とレイアウト説明文を決定します。
// 同じ入力からは常にバイト単位で同一の説明文が得られます（隠れた状態を持ちません）。
func Resolve(tpl Template, rows RowConfig) (Resolved, error) {
	if !tpl.Custom {
		return Resolved{PanelCount: tpl.PanelCount, Description: tpl.Description}, nil
	}

	if err := rows.Validate(); err != nil {
		return Resolved{}, err
	}

	total := 0
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("自定义布局，共 %d 行：", len(rows)))
	for i, cols := range rows {
		total += cols
		if i > 0 {
			sb.WriteString("、")
		}
		sb.WriteString(fmt.Sprintf("第 %d 行有 %d 格", i+1, cols))
	}
	sb.WriteString("。")

	return Resolved{PanelCount: total, Description: sb.String()}, nil
}
