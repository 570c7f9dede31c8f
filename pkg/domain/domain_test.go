package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSeedFromName(t *testing.T) {
	t.Run("同じ名前から決定論的にシードが生成されること", func(t *testing.T) {
		s1 := SeedFromName("Aria")
		s2 := SeedFromName("Aria")
		if s1 != s2 {
			t.Errorf("同じ名前から異なるシードが生成されました: %d != %d", s1, s2)
		}
	})

	t.Run("シードは非負であること", func(t *testing.T) {
		for _, name := range []string{"Aria", "Bram", "ずんだもん", ""} {
			if s := SeedFromName(name); s < 0 {
				t.Errorf("名前 %q から負のシード %d が生成されました", name, s)
			}
		}
	})
}

func TestCameraShots(t *testing.T) {
	if DefaultCameraShot() != CameraShots[0] {
		t.Errorf("デフォルトのショットは語彙の先頭であるべきです: %s", DefaultCameraShot())
	}
	if !IsValidCameraShot("特写镜头") {
		t.Error("特写镜头 は語彙に含まれるべきです")
	}
	if IsValidCameraShot("宇宙視点") {
		t.Error("語彙外のショットが有効と判定されました")
	}
}

func TestEntityTypeLabel(t *testing.T) {
	char := NewCharacter("Aria", "silver-haired knight", "")
	if char.TypeLabel() != "角色" {
		t.Errorf("期待値 '角色', 実際の値 '%s'", char.TypeLabel())
	}
	asset := NewAsset("圣剑", "ornate longsword", "")
	if asset.TypeLabel() != "物品" {
		t.Errorf("期待値 '物品', 実際の値 '%s'", asset.TypeLabel())
	}
	if char.Kind == asset.Kind {
		t.Error("キャラクターとアセットの種別タグが同一になっています")
	}
}

func TestSceneClone(t *testing.T) {
	s := NewBlankScene()
	s.CharacterIDs = []string{"a", "b"}

	c := s.Clone()
	c.CharacterIDs[0] = "mutated"

	if s.CharacterIDs[0] != "a" {
		t.Error("Clone が内部スライスを共有しています")
	}
}

func TestSeedState(t *testing.T) {
	t.Run("ロック中は振り直されないこと", func(t *testing.T) {
		s := SeedState{Value: 42}
		s.Lock()
		s.Roll()
		if s.Value != 42 {
			t.Errorf("ロック中にシードが変化しました: %d", s.Value)
		}
		s.Unlock()
		s.Roll()
		// 2^31 通りからの採番なので 42 のままの可能性は無視できる範囲
		if s.Locked {
			t.Error("Unlock 後も Locked のままです")
		}
	})
}

func TestPageJSON(t *testing.T) {
	p := NewPage(1, []byte{0x89, 0x50}, "image/png", "第1格：Aria draws her sword", "prompt-text", PageModeSingle)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal 失敗: %v", err)
	}
	var decoded Page
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal 失敗: %v", err)
	}
	if !reflect.DeepEqual(p, decoded) {
		t.Errorf("変換前後でデータが一致しません。期待: %+v, 実際: %+v", p, decoded)
	}
}
