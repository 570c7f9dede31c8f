package adapters

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"

	"github.com/shouni/go-comic-studio/pkg/continuity"
)

//go:embed continue.md
var continueTemplateText string

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// GeminiContinuator は go-gemini-client を用いた TextContinuator の実装です。
// 文脈画像が添付された場合はマルチモーダル入力を genai クライアントで処理します。
type GeminiContinuator struct {
	aiClient gemini.GenerativeModel
	raw      *genai.Client
	model    string
	tmpl     *template.Template
}

// NewGeminiContinuator は埋め込みテンプレートを解析して初期化します。
// raw は文脈画像付きの継続に使うクライアントで、nil なら画像は無視されます。
func NewGeminiContinuator(aiClient gemini.GenerativeModel, raw *genai.Client, model string) (*GeminiContinuator, error) {
	if continueTemplateText == "" {
		return nil, fmt.Errorf("継続プロンプトテンプレート (go:embed) の読み込みに失敗しました: 内容が空です")
	}
	tmpl, err := template.New("continue").Parse(continueTemplateText)
	if err != nil {
		return nil, fmt.Errorf("継続プロンプトテンプレートの解析に失敗しました: %w", err)
	}
	return &GeminiContinuator{
		aiClient: aiClient,
		raw:      raw,
		model:    model,
		tmpl:     tmpl,
	}, nil
}

type continueTemplateData struct {
	Story             string
	Outline           string
	PanelCount        int
	LayoutDescription string
	CameraShots       string
	PoolNames         string
	Facts             []string
	Presets           []string
}

// Continue は継続生成要求をプロンプトに整形し、構造化応答を解析して返します。
func (c *GeminiContinuator) Continue(ctx context.Context, req continuity.Request) ([]continuity.PanelPlan, error) {
	prompt, err := c.renderPrompt(req)
	if err != nil {
		return nil, err
	}

	slog.Info("継続生成を呼び出します", "model", c.model, "panels", req.PanelCount, "with_image", len(req.ContextImage) > 0)

	var raw string
	if len(req.ContextImage) > 0 && c.raw != nil {
		raw, err = c.generateWithImage(ctx, prompt, req.ContextImage)
	} else {
		resp, callErr := c.aiClient.GenerateContent(ctx, prompt, c.model)
		if callErr != nil {
			err = callErr
		} else {
			raw = resp.Text
		}
	}
	if err != nil {
		return nil, fmt.Errorf("継続生成の呼び出しに失敗しました: %w", err)
	}

	plans, err := parsePlans(raw)
	if err != nil {
		return nil, err
	}
	return sanitizePlans(plans), nil
}

func (c *GeminiContinuator) renderPrompt(req continuity.Request) (string, error) {
	story := req.PriorStory
	if req.ContextStory != "" {
		story = req.ContextStory
	}
	if story == "" {
		story = "（这是故事的开头，还没有之前的内容。）"
	}

	data := continueTemplateData{
		Story:             story,
		Outline:           req.PageOutline,
		PanelCount:        req.PanelCount,
		LayoutDescription: req.LayoutDescription,
		CameraShots:       strings.Join(req.CameraShots, "、"),
		PoolNames:         strings.Join(req.PoolNames, "、"),
		Facts:             req.RelationshipFacts,
		Presets:           presetLines(req.PanelPresets),
	}
	if data.PoolNames == "" {
		data.PoolNames = "（没有可登场的角色，请写没有人物的场景。）"
	}

	var sb strings.Builder
	if err := c.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("継続プロンプトの構築に失敗しました: %w", err)
	}
	return sb.String(), nil
}

// generateWithImage は文脈画像を添えてマルチモーダル生成を行います。
func (c *GeminiContinuator) generateWithImage(ctx context.Context, prompt string, image []byte) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, http.DetectContentType(image)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.raw.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// presetLines はコマ番号順の安定した表示行を作ります。
func presetLines(presets map[int][]string) []string {
	if len(presets) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(presets))
	for i := range presets {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	lines := make([]string, 0, len(indexes))
	for _, i := range indexes {
		lines = append(lines, fmt.Sprintf("第 %d 格：%s", i+1, strings.Join(presets[i], "、")))
	}
	return lines
}

// parsePlans は応答からフェンス付き JSON を抽出して解析します。
// フェンスがなければ最外の JSON 配列、それもなければ応答全体を試します。
func parsePlans(raw string) ([]continuity.PanelPlan, error) {
	raw = strings.TrimSpace(raw)
	var rawJSON string

	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		rawJSON = matches[1]
	} else {
		first := strings.Index(raw, "[")
		last := strings.LastIndex(raw, "]")
		if first != -1 && last > first {
			rawJSON = raw[first : last+1]
		} else {
			rawJSON = raw
		}
	}

	var plans []continuity.PanelPlan
	if err := json.Unmarshal([]byte(rawJSON), &plans); err != nil {
		return nil, fmt.Errorf("応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncate(raw, 200), err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("応答の分鏡が0件でした")
	}
	return plans, nil
}

// sanitizePlans は前後の空白を落とし、空の名前を除去します。
// 語彙外のカメラショットの扱いは継続エンジン側の検証に委ねます。
func sanitizePlans(plans []continuity.PanelPlan) []continuity.PanelPlan {
	out := make([]continuity.PanelPlan, 0, len(plans))
	for _, p := range plans {
		names := make([]string, 0, len(p.CharacterNames))
		for _, n := range p.CharacterNames {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		out = append(out, continuity.PanelPlan{
			Description:    strings.TrimSpace(p.Description),
			CameraShot:     strings.TrimSpace(p.CameraShot),
			CharacterNames: names,
		})
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
