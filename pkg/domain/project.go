package domain

import "github.com/google/uuid"

// Format は作品全体の判型です。縦スクロールのWebtoonか、通常のページ漫画かを表します。
type Format string

const (
	FormatWebtoon Format = "webtoon"
	FormatPage    Format = "page"
)

// PageMode はページ判型のときの1ページの形態です。Webtoonでは意味を持ちません。
type PageMode string

const (
	PageModeSingle PageMode = "single"
	PageModeSpread PageMode = "spread"
)

// ColorMode は生成する画像の色彩指定です。
type ColorMode string

const (
	ColorModeColor ColorMode = "color"
	ColorModeBW    ColorMode = "bw"
)

// DrawingStyle は作品の画風です。各値に固定のスタイルプロンプトが対応します。
type DrawingStyle string

const (
	StyleJapaneseShonen DrawingStyle = "JAPANESE_SHONEN"
	StyleJapaneseShojo  DrawingStyle = "JAPANESE_SHOJO"
	StyleAmericanComic  DrawingStyle = "AMERICAN_COMIC"
	StyleKoreanWebtoon  DrawingStyle = "KOREAN_WEBTOON"
	StyleChibi          DrawingStyle = "CHIBI"
	StyleInkWash        DrawingStyle = "INK_WASH"
)

// stylePrompts は画風ごとの固定プロンプト文です。プロジェクト作成時に一度だけ解決されます。
var stylePrompts = map[DrawingStyle]string{
	StyleJapaneseShonen: "日本少年漫画风格：硬朗的黑色线稿、强烈的速度线与动态构图、富有冲击力的分镜",
	StyleJapaneseShojo:  "日本少女漫画风格：纤细柔和的线条、大而闪亮的眼睛、花卉与光斑装饰背景",
	StyleAmericanComic:  "美式漫画风格：粗重的轮廓线、高对比的块面阴影、肌肉感与英雄式构图",
	StyleKoreanWebtoon:  "韩国条漫风格：干净的数码上色、柔和的光影过渡、适合竖向滚动阅读的留白",
	StyleChibi:          "Q版（chibi）风格：两头身比例、圆润的造型、夸张可爱的表情符号",
	StyleInkWash:        "水墨风格：毛笔笔触、浓淡渐变的墨色、留白意境与飞白效果",
}

// StylePrompt は画風に対応する固定プロンプト文を返します。未知の画風は空文字です。
func (s DrawingStyle) StylePrompt() string {
	return stylePrompts[s]
}

// Valid は既知の画風かどうかを判定します。
func (s DrawingStyle) Valid() bool {
	_, ok := stylePrompts[s]
	return ok
}

// Project はセッション開始時に一度だけ作成される作品設定です。
// 作成後は読み取り専用で、判型と画風が下流のレイアウト・プロンプト構築を駆動します。
type Project struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Format      Format       `json:"format"`
	Style       DrawingStyle `json:"style"`
	StylePrompt string       `json:"style_prompt"`
}

// NewProject は画風プロンプトを解決済みの Project を生成します。
func NewProject(name string, format Format, style DrawingStyle) Project {
	return Project{
		ID:          uuid.NewString(),
		Name:        name,
		Format:      format,
		Style:       style,
		StylePrompt: style.StylePrompt(),
	}
}
