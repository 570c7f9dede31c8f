package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// EntityKind はエンティティの種別タグです。構造での判別ではなく明示的なタグで区別します。
type EntityKind string

const (
	KindCharacter EntityKind = "character"
	KindAsset     EntityKind = "asset"
)

// Entity はキャラクターまたはアセット（小道具・背景等）の定義です。
// 両者は構造的に同一で、Kind タグのみで区別されます。
type Entity struct {
	ID           string     `json:"id"`
	Kind         EntityKind `json:"kind"`
	Name         string     `json:"name"`
	ReferenceURL string     `json:"reference_url"` // 一貫性保持のための参照画像の所在
	CorePrompt   string     `json:"core_prompt"`   // 生成プロンプトに注入する中核的な特徴
}

// NewCharacter は新しいキャラクターを生成します。
func NewCharacter(name, corePrompt, referenceURL string) Entity {
	return Entity{
		ID:           uuid.NewString(),
		Kind:         KindCharacter,
		Name:         name,
		ReferenceURL: referenceURL,
		CorePrompt:   corePrompt,
	}
}

// NewAsset は新しいアセットを生成します。
func NewAsset(name, corePrompt, referenceURL string) Entity {
	return Entity{
		ID:           uuid.NewString(),
		Kind:         KindAsset,
		Name:         name,
		ReferenceURL: referenceURL,
		CorePrompt:   corePrompt,
	}
}

// TypeLabel はプロンプト内で使う種別ラベル（中国語表記）を返します。
func (e Entity) TypeLabel() string {
	if e.Kind == KindAsset {
		return "物品"
	}
	return "角色"
}

// String はエンティティの情報を文字列で返すのだ。
func (e Entity) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, e.ID)
}

// Relationship は2つのエンティティ間の有向な関係事実です。
// 両端のIDはレジストリ内で解決可能でなければなりません。
type Relationship struct {
	ID          string `json:"id"`
	Entity1ID   string `json:"entity1_id"`
	Entity2ID   string `json:"entity2_id"`
	Description string `json:"description"` // 例: 「〜の宿敌である」
}

// NewRelationship は新しい関係事実を生成します。
func NewRelationship(entity1ID, entity2ID, description string) Relationship {
	return Relationship{
		ID:          uuid.NewString(),
		Entity1ID:   entity1ID,
		Entity2ID:   entity2ID,
		Description: description,
	}
}

// Involves は関係がこのIDを端点に持つかを判定します。
func (r Relationship) Involves(id string) bool {
	return r.Entity1ID == id || r.Entity2ID == id
}

// SeedFromName は名前から決定論的なシード値を生成します。
// 参照画像のない即席キャラクターでも同じ名前なら同じシードになります。
func SeedFromName(name string) int64 {
	hash := sha256.Sum256([]byte(name))
	seed := int32(binary.BigEndian.Uint32(hash[:4]))
	// 生成バックエンドは正のシードを要求するため最上位ビットを落とす
	return int64(seed & 0x7FFFFFFF)
}
