package adapters

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/shouni/gemini-image-kit/pkg/generator"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-http-kit/httpkit"
	"google.golang.org/genai"

	"github.com/shouni/go-comic-studio/pkg/orchestrator"
)

const (
	// DefaultNegativePrompt は全生成リクエストに共通の否定プロンプトです。
	DefaultNegativePrompt = "photorealistic, 3d render, deformed hands, extra fingers, watermark, signature, speech bubbles with gibberish text"

	// 設定画は全身が収まる縦長で生成します
	referenceAspectRatio = "2:3"

	imageCacheExpiration = 30 * time.Minute
	imageCacheCleanup    = 1 * time.Hour
	imageCacheTTL        = 1 * time.Hour
)

// GeminiSynthesizer は gemini-image-kit を用いた ImageSynthesizer の実装です。
// 候補ページと設定画は統合ジェネレーター経由、部分修正と外挿は
// マルチモーダル入力が必要なため genai クライアントを直接使います。
type GeminiSynthesizer struct {
	imgGen     generator.ImageGenerator
	raw        *genai.Client
	imageModel string
}

// NewGeminiSynthesizer は画像処理コアと統合ジェネレーターを組み立てて初期化します。
func NewGeminiSynthesizer(
	httpClient httpkit.ClientInterface,
	aiClient gemini.GenerativeModel,
	raw *genai.Client,
	imageModel string,
) (*GeminiSynthesizer, error) {
	imgCache := cache.New(imageCacheExpiration, imageCacheCleanup)

	core, err := generator.NewGeminiImageCore(httpClient, imgCache, imageCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCoreの初期化に失敗しました: %w", err)
	}

	imgGen, err := generator.NewGeminiGenerator(core, aiClient, imageModel)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗しました: %w", err)
	}

	return &GeminiSynthesizer{
		imgGen:     imgGen,
		raw:        raw,
		imageModel: imageModel,
	}, nil
}

// GenerateReference はエンティティの設定画を1枚生成します。
func (g *GeminiSynthesizer) GenerateReference(ctx context.Context, prompt string) (*orchestrator.Image, error) {
	resp, err := g.imgGen.GenerateMangaPanel(ctx, imagedom.ImageGenerationRequest{
		Prompt:         prompt,
		NegativePrompt: DefaultNegativePrompt,
		AspectRatio:    referenceAspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("設定画の生成に失敗しました: %w", err)
	}
	return toImage(resp), nil
}

// GeneratePanel は完成ページの候補を1枚生成します。
// 参照画像は URL を持つものだけを統合ジェネレーターへ引き渡します。
func (g *GeminiSynthesizer) GeneratePanel(ctx context.Context, req orchestrator.PanelsRequest) (*orchestrator.Image, error) {
	refURLs := make([]string, 0, len(req.References))
	for _, ref := range req.References {
		if ref.URL != "" {
			refURLs = append(refURLs, ref.URL)
		}
	}

	resp, err := g.imgGen.GenerateMangaPage(ctx, imagedom.ImagePageRequest{
		Prompt:         req.Prompt,
		NegativePrompt: DefaultNegativePrompt,
		AspectRatio:    req.AspectRatio,
		Seed:           req.Seed,
		ReferenceURLs:  refURLs,
	})
	if err != nil {
		return nil, fmt.Errorf("候補ページの生成に失敗しました: %w", err)
	}
	return toImage(resp), nil
}

// Edit はマスク指定の部分修正（inpainting）を行います。
func (g *GeminiSynthesizer) Edit(ctx context.Context, prompt string, original, mask, reference []byte) (*orchestrator.Image, error) {
	directive := "请在保持整体画风和分镜结构不变的前提下，仅重绘蒙版覆盖的区域。修改指令：" + prompt
	parts := []*genai.Part{
		genai.NewPartFromText(directive),
		genai.NewPartFromBytes(original, http.DetectContentType(original)),
	}
	if len(mask) > 0 {
		parts = append(parts, genai.NewPartFromBytes(mask, http.DetectContentType(mask)))
	}
	if len(reference) > 0 {
		parts = append(parts, genai.NewPartFromBytes(reference, http.DetectContentType(reference)))
	}

	img, err := g.generateMultimodal(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("部分修正の生成に失敗しました: %w", err)
	}
	return img, nil
}

// Extend はより大きなキャンバスへの外挿（outpainting）を行います。
// canvas は元画像を既に配置した拡大キャンバス、mask は描き足すべき空白領域です。
func (g *GeminiSynthesizer) Extend(ctx context.Context, storyContext string, canvas, mask []byte) (*orchestrator.Image, error) {
	directive := "画布已扩大。请延伸绘制空白区域，保持画风、线条和分镜的连贯性。故事背景：" + storyContext
	parts := []*genai.Part{
		genai.NewPartFromText(directive),
		genai.NewPartFromBytes(canvas, http.DetectContentType(canvas)),
	}
	if len(mask) > 0 {
		parts = append(parts, genai.NewPartFromBytes(mask, http.DetectContentType(mask)))
	}

	img, err := g.generateMultimodal(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("外挿の生成に失敗しました: %w", err)
	}
	return img, nil
}

// generateMultimodal は genai クライアントで画像入力付きの生成を行い、
// 応答から最初の画像パートを取り出します。
func (g *GeminiSynthesizer) generateMultimodal(ctx context.Context, parts []*genai.Part) (*orchestrator.Image, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.raw.Models.GenerateContent(ctx, g.imageModel, contents, nil)
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &orchestrator.Image{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("応答に画像パートが含まれていません")
}

func toImage(resp *imagedom.ImageResponse) *orchestrator.Image {
	return &orchestrator.Image{
		Data:     resp.Data,
		MimeType: resp.MimeType,
		UsedSeed: resp.UsedSeed,
	}
}
