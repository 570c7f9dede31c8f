package domain

import "github.com/google/uuid"

// Page は確定済みの1枚の完成ページです。
// 作成後は画像の差し替え（編集・拡張の結果）以外は不変です。
type Page struct {
	ID        string   `json:"id"`
	Number    int      `json:"number"` // 1始まり。削除時に後続ページが振り直される
	ImageData []byte   `json:"image_data,omitempty"`
	MimeType  string   `json:"mime_type,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	StoryText string   `json:"story_text"` // このページ用に編纂された物語テキストの原文
	Prompt    string   `json:"prompt"`     // 実際に使用された最終プロンプトの原文
	Mode      PageMode `json:"mode"`       // Format=page のときのみ意味を持つ
}

// NewPage は採番済みの新しいページを生成します。
func NewPage(number int, imageData []byte, mimeType, storyText, prompt string, mode PageMode) Page {
	return Page{
		ID:        uuid.NewString(),
		Number:    number,
		ImageData: imageData,
		MimeType:  mimeType,
		StoryText: storyText,
		Prompt:    prompt,
		Mode:      mode,
	}
}
