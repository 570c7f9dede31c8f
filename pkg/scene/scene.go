// Package scene はコマごとの作案状態（シーンセット）を管理します。
// セットのコマ数は常にレイアウト解決結果のコマ数と一致させます。
package scene

import (
	"fmt"
	"slices"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

// Set は順序付きのシーン集合です。
type Set struct {
	scenes []domain.Scene
}

// NewSet は指定したコマ数の空白シーンからなるセットを生成します。
func NewSet(panelCount int) *Set {
	s := &Set{}
	s.Resize(panelCount)
	return s
}

// LoadSet は保存済みのシーン列からセットを復元します。
func LoadSet(scenes []domain.Scene) *Set {
	s := &Set{scenes: make([]domain.Scene, 0, len(scenes))}
	for _, sc := range scenes {
		s.scenes = append(s.scenes, sc.Clone())
	}
	return s
}

// Resize はコマ数の変更に追従します。既存のシーンは先頭から位置を保って残し、
// 増えた分は空白シーンで埋め、減った分は末尾から切り捨てます。
func (s *Set) Resize(panelCount int) {
	if panelCount < 0 {
		panelCount = 0
	}
	for len(s.scenes) < panelCount {
		s.scenes = append(s.scenes, domain.NewBlankScene())
	}
	s.scenes = s.scenes[:panelCount]
}

// Reset は全シーンを破棄して指定コマ数の空白セットに戻します。ページ確定直後に使います。
func (s *Set) Reset(panelCount int) {
	s.scenes = nil
	s.Resize(panelCount)
}

// PanelCount は現在のコマ数を返します。
func (s *Set) PanelCount() int {
	return len(s.scenes)
}

// Scenes は全シーンの防御的コピーを返します。
func (s *Set) Scenes() []domain.Scene {
	out := make([]domain.Scene, len(s.scenes))
	for i, sc := range s.scenes {
		out[i] = sc.Clone()
	}
	return out
}

// SetDescription はシーンの自由記述を更新します。
func (s *Set) SetDescription(sceneID, description string) error {
	sc, err := s.find(sceneID)
	if err != nil {
		return err
	}
	sc.Description = description
	return nil
}

// SetCameraShot はシーンのカメラショットを更新します。語彙外の値は拒否します。
func (s *Set) SetCameraShot(sceneID, shot string) error {
	if !domain.IsValidCameraShot(shot) {
		return fmt.Errorf("カメラショット %q は語彙に含まれていません", shot)
	}
	sc, err := s.find(sceneID)
	if err != nil {
		return err
	}
	sc.CameraShot = shot
	return nil
}

// ToggleEntity はシーンへのエンティティ割り当てを冪等にトグルします。
// 既に割り当て済みなら外し、未割り当てなら追加します。
func (s *Set) ToggleEntity(sceneID, entityID string, kind domain.EntityKind) error {
	sc, err := s.find(sceneID)
	if err != nil {
		return err
	}
	list := &sc.CharacterIDs
	if kind == domain.KindAsset {
		list = &sc.AssetIDs
	}
	if i := slices.Index(*list, entityID); i >= 0 {
		*list = slices.Delete(*list, i, i+1)
	} else {
		*list = append(*list, entityID)
	}
	return nil
}

// PurgeEntity は全シーンの割り当てリストからIDを除去します。
// エンティティ削除時の一括整合処理から呼ばれます。シーン自体は削除しません。
func (s *Set) PurgeEntity(entityID string) {
	for i := range s.scenes {
		s.scenes[i].CharacterIDs = removeAll(s.scenes[i].CharacterIDs, entityID)
		s.scenes[i].AssetIDs = removeAll(s.scenes[i].AssetIDs, entityID)
	}
}

// SetPanel はコマ位置を指定してシーン内容を一括更新します。継続エンジンの書き戻しに使います。
// 語彙外のショットは黙って従来値を維持します。
func (s *Set) SetPanel(index int, description, cameraShot string, characterIDs []string) error {
	if index < 0 || index >= len(s.scenes) {
		return fmt.Errorf("コマ位置 %d は範囲外です（コマ数 %d）", index, len(s.scenes))
	}
	sc := &s.scenes[index]
	sc.Description = description
	if domain.IsValidCameraShot(cameraShot) {
		sc.CameraShot = cameraShot
	}
	sc.CharacterIDs = slices.Clone(characterIDs)
	return nil
}

// AllBlank は全シーンの自由記述が空白かどうかを返します。
func (s *Set) AllBlank() bool {
	for _, sc := range s.scenes {
		if !isBlank(sc.Description) {
			return false
		}
	}
	return true
}

func (s *Set) find(sceneID string) (*domain.Scene, error) {
	for i := range s.scenes {
		if s.scenes[i].ID == sceneID {
			return &s.scenes[i], nil
		}
	}
	return nil, fmt.Errorf("シーンID %s が見つかりません", sceneID)
}

func removeAll(list []string, id string) []string {
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

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' && r != '　' {
			return false
		}
	}
	return true
}
