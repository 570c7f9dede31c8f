// Package session は1つの作品の作業状態（プロジェクト・台帳・シーンセット・
// 確定ページ・継続文脈）をまとめて保持するセッションコンテキストです。
// プロセス全域のシングルトンは置かず、すべての中核操作はこの値を介して行います。
package session

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/layout"
	"github.com/shouni/go-comic-studio/pkg/registry"
	"github.com/shouni/go-comic-studio/pkg/scene"
)

// Session は単一の作品に対する作業状態の集約です。
// 並行な書き込みは想定せず、編成スレッドからのみ変更されます。
type Session struct {
	Project  domain.Project
	Registry *registry.Registry
	Scenes   *scene.Set
	Pages    []domain.Page
	Seed     domain.SeedState

	// レイアウト選択状態。シーンセットのコマ数は常にこの解決結果と一致します。
	Template   layout.Template
	CustomRows layout.RowConfig

	// 継続生成の文脈
	PageOutline      string
	ContextPageID    string // 「このページの続きから」の明示指定。空なら全ページの物語を使う
	MainCharacterIDs []string
	MainAssetIDs     []string
}

// New は新しいセッションを開始します。シーンセットはテンプレートの
// 解決結果に合わせて初期化されます。
func New(project domain.Project, tpl layout.Template, rows layout.RowConfig) (*Session, error) {
	res, err := layout.Resolve(tpl, rows)
	if err != nil {
		return nil, fmt.Errorf("レイアウトの解決に失敗しました: %w", err)
	}
	s := &Session{
		Project:    project,
		Registry:   registry.New(),
		Scenes:     scene.NewSet(res.PanelCount),
		Template:   tpl,
		CustomRows: rows,
	}
	s.Seed.Roll()
	return s, nil
}

// ResolvedLayout は現在のレイアウト選択の解決結果を返します。
func (s *Session) ResolvedLayout() layout.Resolved {
	res, err := layout.Resolve(s.Template, s.CustomRows)
	if err != nil {
		// 選択時に検証済みのため通常は到達しない
		return layout.Resolved{PanelCount: s.Scenes.PanelCount(), Description: ""}
	}
	return res
}

// SelectTemplate はレイアウト選択を変更し、シーンセットのコマ数を同期的に追従させます。
func (s *Session) SelectTemplate(tpl layout.Template, rows layout.RowConfig) error {
	res, err := layout.Resolve(tpl, rows)
	if err != nil {
		return err
	}
	s.Template = tpl
	s.CustomRows = rows
	s.Scenes.Resize(res.PanelCount)
	return nil
}

// DeletionImpact はエンティティ削除が及ぼした影響の集計です。
// ユーザーへの確認表示のための情報で、整合性の強制には使いません。
type DeletionImpact struct {
	RelationshipsRemoved int
	PagesMentioningName  int
}

// DeleteEntity はエンティティを削除し、関係事実の連鎖削除・全シーンからの
// 割り当て除去・選択リストからの除去までを1回の同期的な操作として行います。
// 呼び出し側から途中状態は観測できません。
func (s *Session) DeleteEntity(id string) (DeletionImpact, error) {
	ent, ok := s.Registry.FindByID(id)
	if !ok {
		return DeletionImpact{}, fmt.Errorf("エンティティID %s が見つかりません", id)
	}

	removed, err := s.Registry.Delete(id)
	if err != nil {
		return DeletionImpact{}, err
	}
	s.Scenes.PurgeEntity(id)
	s.MainCharacterIDs = removeID(s.MainCharacterIDs, id)
	s.MainAssetIDs = removeID(s.MainAssetIDs, id)

	impact := DeletionImpact{RelationshipsRemoved: removed}
	for _, p := range s.Pages {
		if ent.Name != "" && strings.Contains(p.StoryText, ent.Name) {
			impact.PagesMentioningName++
		}
	}
	return impact, nil
}

// Reconcile はシーンセットと選択リストが常に台帳の部分集合であるという
// 不変条件を一括で回復します。台帳を直接いじる操作の後に呼びます。
func (s *Session) Reconcile() {
	valid := make(map[string]struct{})
	for _, e := range s.Registry.All() {
		valid[e.ID] = struct{}{}
	}

	for _, sc := range s.Scenes.Scenes() {
		for _, id := range append(append([]string{}, sc.CharacterIDs...), sc.AssetIDs...) {
			if _, ok := valid[id]; !ok {
				s.Scenes.PurgeEntity(id)
			}
		}
	}
	s.MainCharacterIDs = keepValid(s.MainCharacterIDs, valid)
	s.MainAssetIDs = keepValid(s.MainAssetIDs, valid)
}

// StorySoFar は継続生成の前提となる物語テキストを返します。
// ContextPageID が指すページがあればそのページのみ、なければ全ページの連結です。
func (s *Session) StorySoFar() string {
	if s.ContextPageID != "" {
		for _, p := range s.Pages {
			if p.ID == s.ContextPageID {
				return p.StoryText
			}
		}
	}
	var parts []string
	for _, p := range s.Pages {
		if p.StoryText != "" {
			parts = append(parts, p.StoryText)
		}
	}
	return strings.Join(parts, "\n")
}

// ComposeStoryText は現在のシーンセットからこのページの物語テキストを編纂します。
// 確定ページに原文のまま保存され、次ページの継続文脈にもなります。
func (s *Session) ComposeStoryText() string {
	var parts []string
	for i, sc := range s.Scenes.Scenes() {
		if strings.TrimSpace(sc.Description) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("第%d格：%s", i+1, sc.Description))
	}
	return strings.Join(parts, "\n")
}

func removeID(list []string, id string) []string {
	kept := list[:0]
	for _, v := range list {
		if v != id {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func keepValid(list []string, valid map[string]struct{}) []string {
	kept := list[:0]
	for _, v := range list {
		if _, ok := valid[v]; ok {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
