package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/layout"
	"github.com/shouni/go-comic-studio/pkg/registry"
	"github.com/shouni/go-comic-studio/pkg/scene"
	"github.com/shouni/go-comic-studio/pkg/storage"
)

// snapshot は自動保存用のシリアライズ形です。
type snapshot struct {
	Project       domain.Project        `json:"project"`
	Characters    []domain.Entity       `json:"characters"`
	Assets        []domain.Entity       `json:"assets"`
	Relationships []domain.Relationship `json:"relationships"`
	Pages         []domain.Page         `json:"pages"`
	Scenes        []domain.Scene        `json:"scenes"`
	Seed          domain.SeedState      `json:"seed"`
	TemplateID    string                `json:"template_id"`
	CustomRows    []int                 `json:"custom_rows,omitempty"`
	PageOutline   string                `json:"page_outline,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}

// SaveTo は現在の作業状態を固定の自動保存キーで保存します。
func (s *Session) SaveTo(ctx context.Context, store storage.BlobStore) error {
	snap := snapshot{
		Project:       s.Project,
		Characters:    s.Registry.Characters(),
		Assets:        s.Registry.Assets(),
		Relationships: s.Registry.Relationships(),
		Pages:         s.Pages,
		Scenes:        s.Scenes.Scenes(),
		Seed:          s.Seed,
		TemplateID:    s.Template.ID,
		CustomRows:    s.CustomRows,
		PageOutline:   s.PageOutline,
		Timestamp:     time.Now().UTC(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("スナップショットの符号化に失敗しました: %w", err)
	}
	return store.Save(ctx, storage.AutosaveKey, data)
}

// LoadFrom は自動保存キーから作業状態を復元します。保存がなければ (nil, nil) です。
func LoadFrom(ctx context.Context, store storage.BlobStore) (*Session, error) {
	data, err := store.Load(ctx, storage.AutosaveKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("スナップショットの解読に失敗しました: %w", err)
	}

	tpl, ok := layout.FindTemplate(snap.TemplateID)
	if !ok {
		tpl, _ = layout.FindTemplate("grid-4")
	}

	entities := append(append([]domain.Entity{}, snap.Characters...), snap.Assets...)
	s := &Session{
		Project:    snap.Project,
		Registry:   registry.Load(entities, snap.Relationships),
		Scenes:     scene.LoadSet(snap.Scenes),
		Pages:      snap.Pages,
		Seed:       snap.Seed,
		Template:   tpl,
		CustomRows: snap.CustomRows,
	}
	s.PageOutline = snap.PageOutline

	// 復元したシーンセットもレイアウトのコマ数と一致させる
	s.Scenes.Resize(s.ResolvedLayout().PanelCount)
	s.Reconcile()
	return s, nil
}

// ExportOptions はエクスポートに含める配列の選択です。Project は常に含まれます。
type ExportOptions struct {
	Characters    bool
	Assets        bool
	Relationships bool
	Pages         bool
}

// exportDoc はエクスポート形式です。選択されなかった配列はキーごと省かれます。
type exportDoc struct {
	Project       *domain.Project       `json:"project"`
	Version       string                `json:"version"`
	Characters    []domain.Entity       `json:"characters,omitempty"`
	Assets        []domain.Entity       `json:"assets,omitempty"`
	Relationships []domain.Relationship `json:"relationships,omitempty"`
	Pages         []domain.Page         `json:"pages,omitempty"`
}

// ExportVersion はエクスポート形式のバージョン文字列です。
const ExportVersion = "1.0"

// ErrMissingProject はインポート文書に必須の project が無いことを表します。
var ErrMissingProject = errors.New("导入文件缺少必需的 project 字段")

// Export は選択された配列のみを含むJSON文書を生成します。
func (s *Session) Export(opts ExportOptions) ([]byte, error) {
	doc := exportDoc{Project: &s.Project, Version: ExportVersion}
	if opts.Characters {
		doc.Characters = s.Registry.Characters()
	}
	if opts.Assets {
		doc.Assets = s.Registry.Assets()
	}
	if opts.Relationships {
		doc.Relationships = s.Registry.Relationships()
	}
	if opts.Pages {
		doc.Pages = s.Pages
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Import はエクスポート文書からセッションを再構築します。
// project は唯一の必須フィールドで、欠けている場合は何も変更せず失敗します。
// その他の配列は欠けていれば空として扱います。
func Import(data []byte) (*Session, error) {
	var doc exportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("导入文件不是有效的 JSON: %w", err)
	}
	if doc.Project == nil || doc.Project.ID == "" {
		return nil, ErrMissingProject
	}

	tpl, _ := layout.FindTemplate("grid-4")
	s, err := New(*doc.Project, tpl, nil)
	if err != nil {
		return nil, err
	}
	entities := append(append([]domain.Entity{}, doc.Characters...), doc.Assets...)
	s.Registry = registry.Load(entities, doc.Relationships)
	s.Pages = doc.Pages
	for i := range s.Pages {
		s.Pages[i].Number = i + 1
	}
	s.Reconcile()
	return s, nil
}
