package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/layout"
	"github.com/shouni/go-comic-studio/pkg/registry"
)

// buildShonenInput は少年漫画1キャラ1コマの基本入力を組み立てるヘルパーです。
func buildShonenInput(t *testing.T) (Input, domain.Entity) {
	t.Helper()

	reg := registry.New()
	aria := reg.AddCharacter("Aria", "silver-haired knight", "https://example.com/aria.png")

	sc := domain.NewBlankScene()
	sc.Description = "Aria draws her sword"
	sc.CameraShot = "特写镜头"
	sc.CharacterIDs = []string{aria.ID}

	tpl, _ := layout.FindTemplate("single-1")
	res, err := layout.Resolve(tpl, nil)
	if err != nil {
		t.Fatalf("レイアウト解決に失敗しました: %v", err)
	}

	return Input{
		Scenes:    []domain.Scene{sc},
		Entities:  reg.All(),
		Project:   domain.NewProject("テスト作品", domain.FormatPage, domain.StyleJapaneseShonen),
		PageMode:  domain.PageModeSingle,
		ColorMode: domain.ColorModeColor,
		Layout:    res,
	}, aria
}

func TestCompileEndToEnd(t *testing.T) {
	in, _ := buildShonenInput(t)
	out := Compile(in)

	wantSubstrings := []string{
		`参考图 1: [角色] "Aria"`,
		`核心特征：silver-haired knight`,
		`[镜头: 特写镜头] Aria draws her sword [出场角色: "Aria" (参考图 1)]`,
		"PORTRAIT",
		"2:3",
		"本页共 1 格",
	}
	for _, want := range wantSubstrings {
		if !strings.Contains(out.Prompt, want) {
			t.Errorf("プロンプトに %q が含まれていません。\n実際: %s", want, out.Prompt)
		}
	}

	if len(out.Manifest) != 1 {
		t.Fatalf("マニフェスト件数の期待値 1, 実際の値 %d", len(out.Manifest))
	}
	if out.Manifest[0].Index != 1 || out.Manifest[0].Entity.Name != "Aria" {
		t.Errorf("マニフェストの内容が不正です: %+v", out.Manifest[0])
	}
}

func TestCompileDeterminism(t *testing.T) {
	in, _ := buildShonenInput(t)
	p1 := Compile(in).Prompt
	p2 := Compile(in).Prompt
	if p1 != p2 {
		t.Error("同一入力から異なるプロンプトが編纂されました")
	}
}

func TestCompileWhitespaceCollapsed(t *testing.T) {
	in, _ := buildShonenInput(t)
	in.Scenes[0].Description = "Aria\n  draws \t her   sword"
	out := Compile(in)

	if strings.Contains(out.Prompt, "  ") || strings.Contains(out.Prompt, "\n") || strings.Contains(out.Prompt, "\t") {
		t.Errorf("空白の連続が正規化されていません: %q", out.Prompt)
	}
	if !strings.Contains(out.Prompt, "Aria draws her sword") {
		t.Error("正規化後の記述が期待形になっていません")
	}
}

func TestManifestIndexOrder(t *testing.T) {
	reg := registry.New()
	c1 := reg.AddCharacter("一号", "", "")
	a1 := reg.AddAsset("道具甲", "", "")
	c2 := reg.AddCharacter("二号", "", "")
	a2 := reg.AddAsset("道具乙", "", "")
	c3 := reg.AddCharacter("三号（未出场）", "", "")

	// 割り当て順はあえて逆順にする。番号は割り当て順ではなく登録順で決まる。
	sc := domain.NewBlankScene()
	sc.CharacterIDs = []string{c2.ID, c1.ID}
	sc.AssetIDs = []string{a2.ID, a1.ID}

	out := Compile(Input{
		Scenes:   []domain.Scene{sc},
		Entities: reg.All(),
		Project:  domain.NewProject("p", domain.FormatPage, domain.StyleJapaneseShonen),
		PageMode: domain.PageModeSingle,
		Layout:   layout.Resolved{PanelCount: 1, Description: "整页一格。"},
	})

	if len(out.Manifest) != 4 {
		t.Fatalf("マニフェスト件数の期待値 4, 実際の値 %d", len(out.Manifest))
	}

	wantOrder := []string{c1.ID, c2.ID, a1.ID, a2.ID}
	for i, ref := range out.Manifest {
		if ref.Entity.ID != wantOrder[i] {
			t.Errorf("位置 %d の期待エンティティ %s, 実際 %s", i, wantOrder[i], ref.Entity.ID)
		}
		if ref.Index != i+1 {
			t.Errorf("参照番号は1始まりの連番であるべきです。位置 %d の値 %d", i, ref.Index)
		}
		// キャラクターの番号は常にアセットより小さいこと
		if ref.Entity.Kind == domain.KindAsset && ref.Index <= 2 {
			t.Errorf("アセットの番号がキャラクターより先行しています: %+v", ref)
		}
	}

	// 未出場のエンティティはマニフェストに載らないこと
	for _, ref := range out.Manifest {
		if ref.Entity.ID == c3.ID {
			t.Error("どのシーンにも割り当てられていないエンティティがマニフェストに含まれています")
		}
	}
}

func TestCompileEmptyCast(t *testing.T) {
	sc := domain.NewBlankScene()
	sc.Description = "無人の荒野"

	out := Compile(Input{
		Scenes:   []domain.Scene{sc},
		Project:  domain.NewProject("p", domain.FormatPage, domain.StyleInkWash),
		PageMode: domain.PageModeSingle,
		Layout:   layout.Resolved{PanelCount: 1, Description: "整页一格。"},
	})

	if !strings.Contains(out.Prompt, noReference) {
		t.Error("出場エンティティなしのプレースホルダ文が含まれていません")
	}
	if len(out.Manifest) != 0 {
		t.Errorf("空のマニフェストが期待されますが %d 件あります", len(out.Manifest))
	}
}

func TestCompileSkipsStaleIDs(t *testing.T) {
	reg := registry.New()
	alive := reg.AddCharacter("生存者", "", "")

	sc := domain.NewBlankScene()
	sc.Description = "逃走"
	sc.CharacterIDs = []string{"deleted-id", alive.ID}

	out := Compile(Input{
		Scenes:   []domain.Scene{sc},
		Entities: reg.All(),
		Project:  domain.NewProject("p", domain.FormatPage, domain.StyleJapaneseShojo),
		PageMode: domain.PageModeSingle,
		Layout:   layout.Resolved{PanelCount: 1, Description: "整页一格。"},
	})

	if len(out.Manifest) != 1 {
		t.Fatalf("マニフェスト件数の期待値 1, 実際の値 %d", len(out.Manifest))
	}
	if !strings.Contains(out.Prompt, `"生存者" (参考图 1)`) {
		t.Error("生存エンティティの出場句が欠けています")
	}
	if strings.Contains(out.Prompt, "deleted-id") {
		t.Error("台帳から消えたIDがプロンプトに漏れています")
	}
}

func TestAspectAndTaskByFormat(t *testing.T) {
	base, _ := buildShonenInput(t)

	t.Run("跨页モードは横長指示になること", func(t *testing.T) {
		in := base
		in.PageMode = domain.PageModeSpread
		p := Compile(in).Prompt
		if !strings.Contains(p, "LANDSCAPE") || !strings.Contains(p, "3:2") {
			t.Errorf("跨页の画布規格が不正です: %s", p)
		}
	})

	t.Run("Webtoonは縦長連続指示になること", func(t *testing.T) {
		in := base
		in.Project = domain.NewProject("w", domain.FormatWebtoon, domain.StyleKoreanWebtoon)
		p := Compile(in).Prompt
		if !strings.Contains(p, "条漫") {
			t.Errorf("Webtoonの画布規格が不正です: %s", p)
		}
		if strings.Contains(p, "PORTRAIT") || strings.Contains(p, "LANDSCAPE") {
			t.Error("Webtoonに固定アスペクトの指示が含まれています")
		}
	})
}

func TestColorModeBlocks(t *testing.T) {
	in, _ := buildShonenInput(t)

	in.ColorMode = domain.ColorModeBW
	if p := Compile(in).Prompt; !strings.Contains(p, "黑白") || !strings.Contains(p, "screen tone") {
		t.Errorf("モノクロ指示が欠けています: %s", p)
	}

	in.ColorMode = domain.ColorModeColor
	if p := Compile(in).Prompt; !strings.Contains(p, "全彩") {
		t.Errorf("フルカラー指示が欠けています: %s", p)
	}
}

func TestBuildReferencePrompt(t *testing.T) {
	project := domain.NewProject("p", domain.FormatPage, domain.StyleJapaneseShonen)

	charPrompt := BuildReferencePrompt(domain.KindCharacter, "Aria", "silver-haired knight", project)
	if !strings.Contains(charPrompt, "character design sheet") || !strings.Contains(charPrompt, `"Aria"`) {
		t.Errorf("キャラクター設定画プロンプトが不正です: %s", charPrompt)
	}
	if charPrompt != BuildReferencePrompt(domain.KindCharacter, "Aria", "silver-haired knight", project) {
		t.Error("同一入力から異なる設定画プロンプトが生成されました")
	}

	assetPrompt := BuildReferencePrompt(domain.KindAsset, "圣剑", "ornate longsword", project)
	if !strings.Contains(assetPrompt, "物品设定参考图") {
		t.Errorf("アセット設定画プロンプトが不正です: %s", assetPrompt)
	}
}
