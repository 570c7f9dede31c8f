package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/shouni/go-comic-studio/pkg/continuity"
	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/layout"
	"github.com/shouni/go-comic-studio/pkg/session"
)

// fakeSynth は呼び出し回数を記録し、failSlots で指定した呼び出しを失敗させる
// テスト用の ImageSynthesizer です。候補の割り当ては呼び出し順で決まらないため、
// 失敗条件はプロンプトではなく通し番号で制御します。
type fakeSynth struct {
	calls     atomic.Int64
	failFirst int64 // 先頭からこの回数分の GeneratePanel を失敗させる
	failAll   bool
}

func (f *fakeSynth) GenerateReference(_ context.Context, _ string) (*Image, error) {
	return &Image{Data: []byte("ref"), MimeType: "image/png"}, nil
}

func (f *fakeSynth) GeneratePanel(_ context.Context, _ PanelsRequest) (*Image, error) {
	n := f.calls.Add(1)
	if f.failAll || n <= f.failFirst {
		return nil, errors.New("backend unavailable")
	}
	return &Image{Data: []byte("page"), MimeType: "image/png", UsedSeed: 1}, nil
}

func (f *fakeSynth) Edit(_ context.Context, _ string, _, _, _ []byte) (*Image, error) {
	return &Image{Data: []byte("edited"), MimeType: "image/png"}, nil
}

func (f *fakeSynth) Extend(_ context.Context, _ string, _, _ []byte) (*Image, error) {
	return &Image{Data: []byte("extended"), MimeType: "image/png"}, nil
}

type fakeContinuator struct {
	plans []continuity.PanelPlan
	err   error
}

func (f *fakeContinuator) Continue(_ context.Context, _ continuity.Request) ([]continuity.PanelPlan, error) {
	return f.plans, f.err
}

type fakeFetcher struct {
	fail map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, string, error) {
	if f.fail[url] {
		return nil, "", errors.New("404 not found")
	}
	return []byte("img:" + url), "image/png", nil
}

func newTestOrchestrator(synth ImageSynthesizer, cont continuity.TextContinuator, fetcher Fetcher) *Orchestrator {
	return New(synth, cont, fetcher,
		WithRetryDelay(time.Millisecond),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	tpl, _ := layout.FindTemplate("single-1")
	s, err := session.New(domain.NewProject("p", domain.FormatPage, domain.StyleJapaneseShonen), tpl, nil)
	if err != nil {
		t.Fatalf("セッションの開始に失敗しました: %v", err)
	}
	return s
}

func fillStory(t *testing.T, s *session.Session) {
	t.Helper()
	sc := s.Scenes.Scenes()[0]
	if err := s.Scenes.SetDescription(sc.ID, "Aria draws her sword"); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateHappyPath(t *testing.T) {
	sess := newTestSession(t)
	aria := sess.Registry.AddCharacter("Aria", "silver-haired knight", "https://example.com/aria.png")
	sc := sess.Scenes.Scenes()[0]
	sess.Scenes.SetDescription(sc.ID, "Aria draws her sword")
	sess.Scenes.ToggleEntity(sc.ID, aria.ID, domain.KindCharacter)

	o := newTestOrchestrator(&fakeSynth{}, &fakeContinuator{}, &fakeFetcher{})
	res, err := o.Generate(context.Background(), sess, GenerateOptions{
		PageMode: domain.PageModeSingle, ColorMode: domain.ColorModeColor,
	})
	if err != nil {
		t.Fatalf("生成に失敗しました: %v", err)
	}

	for i, c := range res.Candidates {
		if c.Placeholder || c.Image == nil {
			t.Errorf("候補 %d が本物の画像ではありません: %+v", i, c)
		}
	}
	if len(res.References) != 1 || res.References[0].Entity.ID != aria.ID {
		t.Errorf("参照画像の収集結果が不正です: %+v", res.References)
	}
	if !strings.Contains(res.Prompt, `"Aria"`) {
		t.Error("編纂済みプロンプトが結果に含まれていません")
	}
	if res.StoryText == "" {
		t.Error("物語テキストが編纂されていません")
	}
}

func TestGenerateEmptyStoryFails(t *testing.T) {
	sess := newTestSession(t)
	o := newTestOrchestrator(&fakeSynth{}, &fakeContinuator{}, &fakeFetcher{})

	_, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle})
	if !errors.Is(err, ErrEmptyStory) {
		t.Errorf("期待エラー ErrEmptyStory, 実際 %v", err)
	}
	if len(sess.Pages) != 0 {
		t.Error("失敗した生成でページが追加されています")
	}
}

func TestOneCandidateFailsToPlaceholder(t *testing.T) {
	sess := newTestSession(t)
	fillStory(t, sess)

	// 先頭3回を失敗させると、どの交互順序でも片方の枠は初回+再試行の両方が
	// 失敗し、もう片方の枠だけが4回目の呼び出しで成功します（1枠あたり最大2回）。
	synth := &fakeSynth{failFirst: 3}
	o := newTestOrchestrator(synth, &fakeContinuator{}, &fakeFetcher{})

	res, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle})
	if err != nil {
		t.Fatalf("部分失敗が全体エラーに昇格しています: %v", err)
	}

	var real, placeholder int
	for _, c := range res.Candidates {
		if c.Placeholder {
			placeholder++
			if c.Image == nil || !strings.Contains(string(c.Image.Data), "生成失败") {
				t.Error("プレースホルダが視認可能な失敗表示になっていません")
			}
			if c.FailureReason == "" {
				t.Error("プレースホルダに失敗理由がありません")
			}
		} else {
			real++
		}
	}
	if real != 1 || placeholder != 1 {
		t.Errorf("期待値は本物1枚+プレースホルダ1枚ですが、本物 %d, プレースホルダ %d でした", real, placeholder)
	}
}

func TestAllFailStillTwoCandidates(t *testing.T) {
	sess := newTestSession(t)
	fillStory(t, sess)

	o := newTestOrchestrator(&fakeSynth{failAll: true}, &fakeContinuator{}, &fakeFetcher{})
	res, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle})
	if err != nil {
		t.Fatalf("全候補失敗が例外として伝播しました: %v", err)
	}
	for i, c := range res.Candidates {
		if !c.Placeholder {
			t.Errorf("候補 %d はプレースホルダであるべきです", i)
		}
	}
}

func TestRetryOncePerCandidate(t *testing.T) {
	sess := newTestSession(t)
	fillStory(t, sess)

	synth := &fakeSynth{failAll: true}
	o := newTestOrchestrator(synth, &fakeContinuator{}, &fakeFetcher{})
	if _, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle}); err != nil {
		t.Fatal(err)
	}

	// 候補2枠 × (初回+再試行1回) = 4 回ちょうど
	if got := synth.calls.Load(); got != 4 {
		t.Errorf("合成呼び出し回数の期待値 4, 実際の値 %d", got)
	}
}

func TestGatherFailureForOneEntityOnly(t *testing.T) {
	sess := newTestSession(t)
	aria := sess.Registry.AddCharacter("Aria", "", "https://example.com/aria.png")
	bram := sess.Registry.AddCharacter("Bram", "", "https://example.com/bram.png")
	sc := sess.Scenes.Scenes()[0]
	sess.Scenes.SetDescription(sc.ID, "決闘")
	sess.Scenes.ToggleEntity(sc.ID, aria.ID, domain.KindCharacter)
	sess.Scenes.ToggleEntity(sc.ID, bram.ID, domain.KindCharacter)

	fetcher := &fakeFetcher{fail: map[string]bool{"https://example.com/bram.png": true}}
	o := newTestOrchestrator(&fakeSynth{}, &fakeContinuator{}, fetcher)

	res, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle})
	if err != nil {
		t.Fatalf("一部の参照失敗が全体エラーになっています: %v", err)
	}
	if len(res.References) != 1 || res.References[0].Entity.ID != aria.ID {
		t.Errorf("成功した参照だけが残るべきです: %+v", res.References)
	}
}

func TestGatherTotalFailureIsHardError(t *testing.T) {
	sess := newTestSession(t)
	aria := sess.Registry.AddCharacter("Aria", "", "https://example.com/aria.png")
	sc := sess.Scenes.Scenes()[0]
	sess.Scenes.SetDescription(sc.ID, "決闘")
	sess.Scenes.ToggleEntity(sc.ID, aria.ID, domain.KindCharacter)

	fetcher := &fakeFetcher{fail: map[string]bool{"https://example.com/aria.png": true}}
	o := newTestOrchestrator(&fakeSynth{}, &fakeContinuator{}, fetcher)

	if _, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle}); err == nil {
		t.Error("出場エンティティがいるのに参照ゼロでも生成が進みました")
	}
}

func TestAutoWriteFlowsIntoScenes(t *testing.T) {
	sess := newTestSession(t)
	sess.Registry.AddCharacter("Aria", "", "https://example.com/aria.png")

	cont := &fakeContinuator{plans: []continuity.PanelPlan{
		{Description: "Aria 启程", CameraShot: "远景", CharacterNames: []string{"Aria"}},
	}}
	o := newTestOrchestrator(&fakeSynth{}, cont, &fakeFetcher{})

	res, err := o.Generate(context.Background(), sess, GenerateOptions{
		AutoWrite: true, PageMode: domain.PageModeSingle,
	})
	if err != nil {
		t.Fatalf("自動執筆付きの生成に失敗しました: %v", err)
	}

	sc := sess.Scenes.Scenes()[0]
	if sc.Description != "Aria 启程" || sc.CameraShot != "远景" {
		t.Errorf("自動執筆がシーンセットへ書き戻されていません: %+v", sc)
	}
	if !strings.Contains(res.StoryText, "Aria 启程") {
		t.Error("自動執筆の結果が物語テキストに反映されていません")
	}
}

func TestCommit(t *testing.T) {
	sess := newTestSession(t)
	fillStory(t, sess)
	sess.PageOutline = "決闘の続き"

	o := newTestOrchestrator(&fakeSynth{}, &fakeContinuator{}, &fakeFetcher{})
	res, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle})
	if err != nil {
		t.Fatal(err)
	}

	page, err := o.Commit(sess, res, 0)
	if err != nil {
		t.Fatalf("確定に失敗しました: %v", err)
	}
	if page.Number != 1 {
		t.Errorf("ページ番号の期待値 1, 実際の値 %d", page.Number)
	}
	if page.Prompt != res.Prompt || page.StoryText != res.StoryText {
		t.Error("プロンプトと物語テキストが原文のまま保存されていません")
	}
	if !sess.Scenes.AllBlank() {
		t.Error("確定後にシーンセットが空白へ戻っていません")
	}
	if sess.PageOutline != "" {
		t.Error("確定後にページ大筋がクリアされていません")
	}
}

func TestCommitPlaceholderRejected(t *testing.T) {
	sess := newTestSession(t)
	fillStory(t, sess)

	o := newTestOrchestrator(&fakeSynth{failAll: true}, &fakeContinuator{}, &fakeFetcher{})
	res, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Commit(sess, res, 0); !errors.Is(err, ErrPlaceholderSelected) {
		t.Errorf("期待エラー ErrPlaceholderSelected, 実際 %v", err)
	}
}

func TestStaleGenerationDiscarded(t *testing.T) {
	sess := newTestSession(t)
	fillStory(t, sess)

	o := newTestOrchestrator(&fakeSynth{}, &fakeContinuator{}, &fakeFetcher{})
	stale, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle})
	if err != nil {
		t.Fatal(err)
	}

	// 新しい生成が古い結果への関心を打ち切る
	fillStory(t, sess)
	fresh, err := o.Generate(context.Background(), sess, GenerateOptions{PageMode: domain.PageModeSingle})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := o.Commit(sess, stale, 0); !errors.Is(err, ErrStaleGeneration) {
		t.Errorf("追い越された結果の確定が拒否されませんでした: %v", err)
	}
	if _, err := o.Commit(sess, fresh, 0); err != nil {
		t.Errorf("最新結果の確定に失敗しました: %v", err)
	}
}

func TestEditAndExtendReplaceImage(t *testing.T) {
	sess := newTestSession(t)
	fillStory(t, sess)
	page := sess.AppendPage([]byte("orig"), "image/png", "story", "prompt", domain.PageModeSingle)

	o := newTestOrchestrator(&fakeSynth{}, &fakeContinuator{}, &fakeFetcher{})
	ctx := context.Background()

	if err := o.EditPage(ctx, sess, page.ID, "把剑改成长枪", []byte("mask"), nil); err != nil {
		t.Fatalf("部分修正に失敗しました: %v", err)
	}
	got, _ := sess.FindPage(page.ID)
	if string(got.ImageData) != "edited" {
		t.Error("部分修正で画像が差し替わっていません")
	}
	if got.StoryText != "story" || got.Prompt != "prompt" {
		t.Error("画像以外のフィールドが書き換わっています")
	}

	if err := o.ExtendPage(ctx, sess, page.ID, []byte("canvas"), []byte("mask"), domain.PageModeSpread); err != nil {
		t.Fatalf("外挿に失敗しました: %v", err)
	}
	got, _ = sess.FindPage(page.ID)
	if string(got.ImageData) != "extended" || got.Mode != domain.PageModeSpread {
		t.Error("外挿で画像とページ形態が差し替わっていません")
	}
}
