// Package orchestrator はページ生成の一連の工程（継続生成・検証・参照収集・
// プロンプト編纂・画像合成・候補選択・確定）を編成します。
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-comic-studio/pkg/continuity"
	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/prompts"
	"github.com/shouni/go-comic-studio/pkg/session"
)

// CandidateCount はユーザーに提示する候補画像の枚数です。常にこの枚数を返します。
const CandidateCount = 2

// maxAttemptsPerCandidate は候補1枚あたりの最大試行回数です（初回+再試行1回）。
const maxAttemptsPerCandidate = 2

var (
	// ErrEmptyStory は全コマの記述が空白のまま生成が要求されたことを表します。
	ErrEmptyStory = errors.New("所有画格的描述都是空白，无法开始生成")
	// ErrStaleGeneration は新しい生成に追い越された古い結果の確定要求を表します。
	ErrStaleGeneration = errors.New("该生成结果已被更新的生成取代")
	// ErrPlaceholderSelected は失敗プレースホルダの確定要求を表します。
	ErrPlaceholderSelected = errors.New("不能将生成失败的占位图确定为页面")
)

// Candidate は提示する候補の1枠です。合成が再試行後も失敗した枠は、
// 本物の結果と見分けがつくようプレースホルダ画像で埋めます。
type Candidate struct {
	Image         *Image
	Placeholder   bool
	FailureReason string
}

// Result は候補選択待ちの生成結果一式です。
type Result struct {
	Epoch      int64
	Prompt     string
	StoryText  string
	PageMode   domain.PageMode
	Manifest   []prompts.EntityRef
	References []ReferenceImage
	Candidates [CandidateCount]Candidate
}

// Orchestrator はページ生成工程の編成者です。
type Orchestrator struct {
	synth       ImageSynthesizer
	continuator continuity.TextContinuator
	gatherer    *Gatherer
	limiter     *rate.Limiter
	retryDelay  time.Duration

	// epoch は世代カウンタです。確定時に照合し、追い越された結果を確実に破棄します。
	epoch atomic.Int64
}

// Option は Orchestrator の調整ノブです。
type Option func(*Orchestrator)

// WithRetryDelay は再試行までの待ち時間を変更します（テスト用途）。
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.retryDelay = d }
}

// WithRateLimiter は合成呼び出しの流量制限を差し替えます。
func WithRateLimiter(l *rate.Limiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// New は Orchestrator を初期化します。
func New(synth ImageSynthesizer, continuator continuity.TextContinuator, fetcher Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		synth:       synth,
		continuator: continuator,
		gatherer:    NewGatherer(fetcher),
		limiter:     rate.NewLimiter(rate.Every(10*time.Second), CandidateCount),
		retryDelay:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateOptions は1回のページ生成の指定です。
type GenerateOptions struct {
	// AutoWrite が真なら生成の前に継続エンジンでシーンを自動執筆します。
	AutoWrite bool
	PageMode  domain.PageMode
	ColorMode domain.ColorMode
}

// Generate は候補選択待ちまでの工程を実行します。
// 物語が空のままなら ErrEmptyStory を返し、状態は一切変更されません
// （自動執筆が行われた場合のシーンセット更新は残ります）。
func (o *Orchestrator) Generate(ctx context.Context, sess *session.Session, opts GenerateOptions) (*Result, error) {
	epoch := o.epoch.Add(1)
	res := sess.ResolvedLayout()

	// Continuing: 明示要求時のみ
	if opts.AutoWrite {
		if err := o.AutoWrite(ctx, sess); err != nil {
			return nil, err
		}
	}

	// ValidatingStory: 物語なしでの生成は進めない
	if sess.Scenes.AllBlank() {
		return nil, ErrEmptyStory
	}

	scenes := sess.Scenes.Scenes()
	entities := sess.Registry.All()

	// GatheringReferences: 出場エンティティ分を並行収集
	manifest := prompts.Manifest(scenes, entities)
	gathered := o.gatherer.Gather(ctx, manifest)
	for name, err := range gathered.Failed {
		slog.Warn("参照画像を用意できないエンティティがあります", "entity", name, "error", err)
	}
	if len(manifest) > 0 && len(gathered.References) == 0 {
		return nil, fmt.Errorf("出場エンティティ %d 件の参照画像を1枚も収集できませんでした", len(manifest))
	}

	// Compiling: 純関数のプロンプト編纂
	compiled := prompts.Compile(prompts.Input{
		Scenes:    scenes,
		Entities:  entities,
		Project:   sess.Project,
		PageMode:  opts.PageMode,
		ColorMode: opts.ColorMode,
		Layout:    res,
	})

	// Synthesizing: 2候補を並列生成し、両方の完了を待つ
	sess.Seed.Roll()
	seed := sess.Seed.Value
	req := PanelsRequest{
		Prompt:      compiled.Prompt,
		References:  gathered.References,
		AspectRatio: aspectRatioFor(sess.Project.Format, opts.PageMode),
		Seed:        &seed,
	}

	result := &Result{
		Epoch:      epoch,
		Prompt:     compiled.Prompt,
		StoryText:  sess.ComposeStoryText(),
		PageMode:   opts.PageMode,
		Manifest:   compiled.Manifest,
		References: gathered.References,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for slot := 0; slot < CandidateCount; slot++ {
		slot := slot
		eg.Go(func() error {
			result.Candidates[slot] = o.synthesizeCandidate(egCtx, slot, req)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slog.Info("候補の生成が完了しました", "stage", StageAwaitingSelection.String(), "epoch", epoch)
	return result, nil
}

// AutoWrite は継続エンジンでシーンセットの自動執筆だけを行います。
// 解釈不能な応答は定型文に整形されるため、書き戻し自体が失敗するのは
// レイアウトとシーンセットのコマ数が食い違っている場合だけです。
func (o *Orchestrator) AutoWrite(ctx context.Context, sess *session.Session) error {
	res := sess.ResolvedLayout()
	slog.Info("継続エンジンで自動執筆します", "stage", StageContinuing.String(), "panels", res.PanelCount)

	in := continuity.Input{
		Scenes:           sess.Scenes.Scenes(),
		MainCharacterIDs: sess.MainCharacterIDs,
		MainAssetIDs:     sess.MainAssetIDs,
		PriorStory:       sess.StorySoFar(),
		PageOutline:      sess.PageOutline,
		Layout:           res,
	}
	// 「このページの続き」指定があれば、そのページの画像も文脈として添える
	if sess.ContextPageID != "" {
		if page, ok := sess.FindPage(sess.ContextPageID); ok {
			in.ContextImage = page.ImageData
		}
	}

	engine := continuity.NewEngine(sess.Registry, o.continuator)
	panels := engine.Continue(ctx, in)
	for i, p := range panels {
		if err := sess.Scenes.SetPanel(i, p.Description, p.CameraShot, p.CharacterIDs); err != nil {
			return fmt.Errorf("自動執筆の書き戻しに失敗しました: %w", err)
		}
	}
	return nil
}

// synthesizeCandidate は候補1枠を生成します。初回と再試行の双方が失敗した枠は
// エラーにせず、失敗が視認できるプレースホルダで埋めます。
func (o *Orchestrator) synthesizeCandidate(ctx context.Context, slot int, req PanelsRequest) Candidate {
	var img *Image
	attempt := 0
	op := func() error {
		attempt++
		if err := o.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		res, err := o.synth.GeneratePanel(ctx, req)
		if err != nil {
			slog.Warn("候補の合成に失敗しました", "slot", slot, "attempt", attempt, "error", err)
			return err
		}
		img = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.retryDelay), maxAttemptsPerCandidate-1),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return Candidate{
			Image:         placeholderImage(),
			Placeholder:   true,
			FailureReason: err.Error(),
		}
	}
	return Candidate{Image: img}
}

// Commit は選択された候補を新しい確定ページとして追加し、
// シーンセットを空白に戻して継続文脈をクリアします。
func (o *Orchestrator) Commit(sess *session.Session, result *Result, choice int) (domain.Page, error) {
	if result.Epoch != o.epoch.Load() {
		return domain.Page{}, ErrStaleGeneration
	}
	if choice < 0 || choice >= CandidateCount {
		return domain.Page{}, fmt.Errorf("候補番号 %d は範囲外です", choice)
	}
	chosen := result.Candidates[choice]
	if chosen.Placeholder || chosen.Image == nil {
		return domain.Page{}, ErrPlaceholderSelected
	}

	page := sess.AppendPage(chosen.Image.Data, chosen.Image.MimeType, result.StoryText, result.Prompt, result.PageMode)

	sess.Scenes.Reset(sess.ResolvedLayout().PanelCount)
	sess.PageOutline = ""
	sess.ContextPageID = ""

	slog.Info("ページを確定しました", "stage", StageCommitted.String(), "page", page.Number)
	return page, nil
}

// aspectRatioFor は判型とページ形態から生成要求のアスペクト比を決めます。
func aspectRatioFor(format domain.Format, mode domain.PageMode) string {
	if format == domain.FormatWebtoon {
		return "9:16"
	}
	if mode == domain.PageModeSpread {
		return "3:2"
	}
	return "2:3"
}
