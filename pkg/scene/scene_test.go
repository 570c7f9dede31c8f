package scene

import (
	"reflect"
	"testing"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

func TestResizePreservesPrefix(t *testing.T) {
	s := NewSet(2)
	scenes := s.Scenes()
	if err := s.SetDescription(scenes[0].ID, "決闘の始まり"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDescription(scenes[1].ID, "剣を抜く"); err != nil {
		t.Fatal(err)
	}
	before := s.Scenes()

	s.Resize(4)
	after := s.Scenes()

	if len(after) != 4 {
		t.Fatalf("コマ数の期待値 4, 実際の値 %d", len(after))
	}
	// 拡張後も先頭2コマはバイト単位で同一であること
	for i := 0; i < 2; i++ {
		if !reflect.DeepEqual(before[i], after[i]) {
			t.Errorf("コマ %d が拡張で変化しました。前: %+v, 後: %+v", i, before[i], after[i])
		}
	}
	// 増えたコマは空白シーンであること
	for i := 2; i < 4; i++ {
		if after[i].Description != "" || after[i].CameraShot != domain.DefaultCameraShot() {
			t.Errorf("コマ %d が空白シーンではありません: %+v", i, after[i])
		}
	}
}

func TestResizeShrinkDropsTail(t *testing.T) {
	s := NewSet(4)
	ids := make([]string, 4)
	for i, sc := range s.Scenes() {
		ids[i] = sc.ID
	}

	s.Resize(2)
	after := s.Scenes()
	if len(after) != 2 {
		t.Fatalf("コマ数の期待値 2, 実際の値 %d", len(after))
	}
	if after[0].ID != ids[0] || after[1].ID != ids[1] {
		t.Error("縮小時に先頭のシーンが保存されていません")
	}
}

func TestToggleEntityIdempotent(t *testing.T) {
	s := NewSet(1)
	sid := s.Scenes()[0].ID

	if err := s.ToggleEntity(sid, "char-1", domain.KindCharacter); err != nil {
		t.Fatal(err)
	}
	if got := s.Scenes()[0].CharacterIDs; len(got) != 1 || got[0] != "char-1" {
		t.Fatalf("トグル後の割り当ての期待値 [char-1], 実際の値 %v", got)
	}

	// 再トグルで外れること
	if err := s.ToggleEntity(sid, "char-1", domain.KindCharacter); err != nil {
		t.Fatal(err)
	}
	if got := s.Scenes()[0].CharacterIDs; len(got) != 0 {
		t.Errorf("再トグル後も割り当てが残っています: %v", got)
	}

	// アセットはキャラクターと別リストであること
	s.ToggleEntity(sid, "asset-1", domain.KindAsset)
	sc := s.Scenes()[0]
	if len(sc.AssetIDs) != 1 || len(sc.CharacterIDs) != 0 {
		t.Errorf("アセットのトグルがキャラクターリストに影響しています: %+v", sc)
	}
}

func TestPurgeEntity(t *testing.T) {
	s := NewSet(3)
	for _, sc := range s.Scenes() {
		s.ToggleEntity(sc.ID, "doomed", domain.KindCharacter)
		s.ToggleEntity(sc.ID, "survivor", domain.KindCharacter)
		s.ToggleEntity(sc.ID, "doomed", domain.KindAsset)
	}

	s.PurgeEntity("doomed")

	for i, sc := range s.Scenes() {
		for _, id := range sc.CharacterIDs {
			if id == "doomed" {
				t.Errorf("コマ %d のキャラクターリストに削除済みIDが残っています", i)
			}
		}
		for _, id := range sc.AssetIDs {
			if id == "doomed" {
				t.Errorf("コマ %d のアセットリストに削除済みIDが残っています", i)
			}
		}
		if len(sc.CharacterIDs) != 1 || sc.CharacterIDs[0] != "survivor" {
			t.Errorf("コマ %d で無関係な割り当てまで消えています: %v", i, sc.CharacterIDs)
		}
	}
}

func TestSetCameraShotRejectsUnknown(t *testing.T) {
	s := NewSet(1)
	sid := s.Scenes()[0].ID

	if err := s.SetCameraShot(sid, "特写镜头"); err != nil {
		t.Fatalf("語彙内のショットが拒否されました: %v", err)
	}
	if err := s.SetCameraShot(sid, "ドローン空撮"); err == nil {
		t.Error("語彙外のショットが受理されました")
	}
	if got := s.Scenes()[0].CameraShot; got != "特写镜头" {
		t.Errorf("拒否後もショットは維持されるべきです。実際の値 %s", got)
	}
}

func TestSetPanelKeepsShotOnInvalid(t *testing.T) {
	s := NewSet(1)
	s.SetCameraShot(s.Scenes()[0].ID, "远景")

	if err := s.SetPanel(0, "新しい描写", "不存在的镜头", []string{"c1"}); err != nil {
		t.Fatal(err)
	}
	sc := s.Scenes()[0]
	if sc.CameraShot != "远景" {
		t.Errorf("語彙外ショットで従来値が失われました: %s", sc.CameraShot)
	}
	if sc.Description != "新しい描写" {
		t.Error("記述が更新されていません")
	}
}

func TestAllBlank(t *testing.T) {
	s := NewSet(2)
	if !s.AllBlank() {
		t.Error("空白セットが AllBlank=false です")
	}
	s.SetDescription(s.Scenes()[0].ID, "   　 ")
	if !s.AllBlank() {
		t.Error("空白文字のみの記述で AllBlank=false です")
	}
	s.SetDescription(s.Scenes()[1].ID, "物語")
	if s.AllBlank() {
		t.Error("記述があるのに AllBlank=true です")
	}
}

func TestReset(t *testing.T) {
	s := NewSet(2)
	s.SetDescription(s.Scenes()[0].ID, "残したいが消える")
	s.Reset(3)

	if s.PanelCount() != 3 {
		t.Fatalf("リセット後のコマ数の期待値 3, 実際の値 %d", s.PanelCount())
	}
	if !s.AllBlank() {
		t.Error("リセット後に内容が残っています")
	}
}
