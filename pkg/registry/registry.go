// Package registry は作品の登場キャラクター・アセット・関係事実を保持し、
// 削除時の参照整合性を一括で保証するエンティティレジストリです。
package registry

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

// Registry はエンティティと関係事実の台帳です。
// 登録順を保持するためスライスで管理します。プロンプトの参照番号は登録順に依存します。
type Registry struct {
	entities      []domain.Entity
	relationships []domain.Relationship
}

// New は空のレジストリを生成します。
func New() *Registry {
	return &Registry{}
}

// Load は保存済みのエンティティと関係事実からレジストリを復元します。
func Load(entities []domain.Entity, relationships []domain.Relationship) *Registry {
	r := &Registry{}
	for _, e := range entities {
		r.entities = append(r.entities, e)
	}
	for _, rel := range relationships {
		r.relationships = append(r.relationships, rel)
	}
	return r
}

// Add はエンティティを登録します。IDが重複する場合はエラーです。
func (r *Registry) Add(e domain.Entity) error {
	if _, ok := r.FindByID(e.ID); ok {
		return fmt.Errorf("エンティティID %s は既に登録されています", e.ID)
	}
	r.entities = append(r.entities, e)
	return nil
}

// AddCharacter はキャラクターを新規作成して登録します。
func (r *Registry) AddCharacter(name, corePrompt, referenceURL string) domain.Entity {
	e := domain.NewCharacter(name, corePrompt, referenceURL)
	r.entities = append(r.entities, e)
	return e
}

// AddAsset はアセットを新規作成して登録します。
func (r *Registry) AddAsset(name, corePrompt, referenceURL string) domain.Entity {
	e := domain.NewAsset(name, corePrompt, referenceURL)
	r.entities = append(r.entities, e)
	return e
}

// Update は既存エンティティの名前・特徴・参照画像を更新します。種別とIDは変更できません。
func (r *Registry) Update(id, name, corePrompt, referenceURL string) error {
	for i := range r.entities {
		if r.entities[i].ID == id {
			r.entities[i].Name = name
			r.entities[i].CorePrompt = corePrompt
			r.entities[i].ReferenceURL = referenceURL
			return nil
		}
	}
	return fmt.Errorf("エンティティID %s が見つかりません", id)
}

// Delete はエンティティを削除し、その両端を含む関係事実をすべて同時に削除します。
// 戻り値は連鎖削除された関係事実の数です。シーン側の割り当て除去は呼び出し元
// （セッション層の一括整合処理）が同一操作内で行います。
func (r *Registry) Delete(id string) (removedRelationships int, err error) {
	idx := -1
	for i, e := range r.entities {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("エンティティID %s が見つかりません", id)
	}

	r.entities = append(r.entities[:idx], r.entities[idx+1:]...)

	kept := r.relationships[:0]
	for _, rel := range r.relationships {
		if rel.Involves(id) {
			removedRelationships++
			continue
		}
		kept = append(kept, rel)
	}
	r.relationships = kept
	return removedRelationships, nil
}

// FindByID はIDからエンティティを検索します。
func (r *Registry) FindByID(id string) (domain.Entity, bool) {
	for _, e := range r.entities {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Entity{}, false
}

// FindCharacterByName は表示名からキャラクターを検索します。大文字小文字は無視します。
// 名前は一意とは限らないため、登録順で最初に一致したものを返します（既知の曖昧さ）。
func (r *Registry) FindCharacterByName(name string) (domain.Entity, bool) {
	for _, e := range r.entities {
		if e.Kind == domain.KindCharacter && strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return domain.Entity{}, false
}

// Characters は登録順のキャラクター一覧を返します。
func (r *Registry) Characters() []domain.Entity {
	return r.byKind(domain.KindCharacter)
}

// Assets は登録順のアセット一覧を返します。
func (r *Registry) Assets() []domain.Entity {
	return r.byKind(domain.KindAsset)
}

// All は登録順の全エンティティのコピーを返します。
func (r *Registry) All() []domain.Entity {
	out := make([]domain.Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

func (r *Registry) byKind(kind domain.EntityKind) []domain.Entity {
	var out []domain.Entity
	for _, e := range r.entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Contains はIDがレジストリ内で解決可能かを返します。
func (r *Registry) Contains(id string) bool {
	_, ok := r.FindByID(id)
	return ok
}
