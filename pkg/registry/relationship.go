package registry

import (
	"fmt"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

// AddRelationship は両端の解決可能性を検証した上で関係事実を登録します。
func (r *Registry) AddRelationship(entity1ID, entity2ID, description string) (domain.Relationship, error) {
	if !r.Contains(entity1ID) {
		return domain.Relationship{}, fmt.Errorf("関係の起点エンティティ %s が見つかりません", entity1ID)
	}
	if !r.Contains(entity2ID) {
		return domain.Relationship{}, fmt.Errorf("関係の終点エンティティ %s が見つかりません", entity2ID)
	}
	rel := domain.NewRelationship(entity1ID, entity2ID, description)
	r.relationships = append(r.relationships, rel)
	return rel, nil
}

// DeleteRelationship は関係事実を単体で削除します。
func (r *Registry) DeleteRelationship(id string) error {
	for i, rel := range r.relationships {
		if rel.ID == id {
			r.relationships = append(r.relationships[:i], r.relationships[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("関係ID %s が見つかりません", id)
}

// Relationships は登録順の関係事実のコピーを返します。
func (r *Registry) Relationships() []domain.Relationship {
	out := make([]domain.Relationship, len(r.relationships))
	copy(out, r.relationships)
	return out
}

// RelationshipsAmong は両端が与えられたID集合に含まれる関係事実のみを返します。
// 継続エンジンが物語に注入する関係事実の絞り込みに使います。
func (r *Registry) RelationshipsAmong(ids map[string]struct{}) []domain.Relationship {
	var out []domain.Relationship
	for _, rel := range r.relationships {
		_, ok1 := ids[rel.Entity1ID]
		_, ok2 := ids[rel.Entity2ID]
		if ok1 && ok2 {
			out = append(out, rel)
		}
	}
	return out
}

// RelationshipFacts は関係事実を「X 〜 Y」形式の自然言語の事実文として描画します。
// 端点が解決できない関係は黙ってスキップします。
func (r *Registry) RelationshipFacts(rels []domain.Relationship) []string {
	var facts []string
	for _, rel := range rels {
		e1, ok1 := r.FindByID(rel.Entity1ID)
		e2, ok2 := r.FindByID(rel.Entity2ID)
		if !ok1 || !ok2 {
			continue
		}
		facts = append(facts, fmt.Sprintf("%s %s %s", e1.Name, rel.Description, e2.Name))
	}
	return facts
}
