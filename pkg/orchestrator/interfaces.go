package orchestrator

import (
	"context"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

// Image は生成バックエンドから返された画像データです。
type Image struct {
	Data     []byte
	MimeType string
	UsedSeed int64
}

// ReferenceImage は収集・符号化済みの参照画像1枚です。
// Index はプロンプト本文の「参考图 N」と同じ番号です。
type ReferenceImage struct {
	Entity   domain.Entity
	Index    int
	URL      string
	Data     []byte
	MimeType string
}

// PanelsRequest は完成ページ候補1枚分の生成要求です。
type PanelsRequest struct {
	Prompt      string
	References  []ReferenceImage
	AspectRatio string
	Seed        *int64
}

// ImageSynthesizer は画像合成を行う外部能力の抽象です。
type ImageSynthesizer interface {
	// GenerateReference はエンティティの設定画を1枚生成します。
	GenerateReference(ctx context.Context, prompt string) (*Image, error)
	// GeneratePanel は完成ページの候補を1枚生成します。
	// 2候補の並列化と再試行は呼び出し側（編成層）の責務です。
	GeneratePanel(ctx context.Context, req PanelsRequest) (*Image, error)
	// Edit はマスク指定の部分修正（inpainting）を行います。
	Edit(ctx context.Context, prompt string, original, mask, reference []byte) (*Image, error)
	// Extend はより大きなキャンバスへの外挿（outpainting）を行います。
	Extend(ctx context.Context, storyContext string, canvas, mask []byte) (*Image, error)
}

// Fetcher は参照画像の取得を行う抽象です。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, mimeType string, err error)
}
