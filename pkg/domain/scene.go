package domain

import (
	"slices"

	"github.com/google/uuid"
)

// CameraShots はシーンに指定できるカメラショットの固定語彙です。
// AIの応答検証にもこの並びがそのまま使われるため、順序を変えてはいけません。
// 先頭の値が新規シーンのデフォルトです。
var CameraShots = []string{
	"中景",
	"远景",
	"近景",
	"特写镜头",
	"广角镜头",
	"俯视镜头",
	"仰视镜头",
}

// DefaultCameraShot は新規シーンに与えるカメラショットです。
func DefaultCameraShot() string {
	return CameraShots[0]
}

// IsValidCameraShot は固定語彙に含まれるショットかを判定します。
func IsValidCameraShot(shot string) bool {
	return slices.Contains(CameraShots, shot)
}

// Scene は1コマ分の作案単位です。自由記述、カメラショット、
// 出場するキャラクター/アセットのID割り当てを保持します。
type Scene struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	CameraShot   string   `json:"camera_shot"`
	CharacterIDs []string `json:"character_ids,omitempty"`
	AssetIDs     []string `json:"asset_ids,omitempty"`
}

// NewBlankScene は空のシーンを生成します。
func NewBlankScene() Scene {
	return Scene{
		ID:         uuid.NewString(),
		CameraShot: DefaultCameraShot(),
	}
}

// Clone はシーンの防御的コピーを返します。
func (s Scene) Clone() Scene {
	c := s
	c.CharacterIDs = slices.Clone(s.CharacterIDs)
	c.AssetIDs = slices.Clone(s.AssetIDs)
	return c
}

// HasCast はいずれかのエンティティが割り当てられているかを返します。
func (s Scene) HasCast() bool {
	return len(s.CharacterIDs) > 0 || len(s.AssetIDs) > 0
}
