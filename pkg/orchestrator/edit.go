package orchestrator

import (
	"context"
	"fmt"

	"github.com/shouni/go-comic-studio/pkg/domain"
	"github.com/shouni/go-comic-studio/pkg/session"
)

// EditPage は確定ページにマスク指定の部分修正をかけ、結果で画像を差し替えます。
// 修正はバックエンド呼び出しを伴うため再試行はせず、失敗はそのまま返します。
func (o *Orchestrator) EditPage(ctx context.Context, sess *session.Session, pageID, prompt string, mask, reference []byte) error {
	page, ok := sess.FindPage(pageID)
	if !ok {
		return fmt.Errorf("ページID %s が見つかりません", pageID)
	}
	img, err := o.synth.Edit(ctx, prompt, page.ImageData, mask, reference)
	if err != nil {
		return fmt.Errorf("ページ %d の部分修正に失敗しました: %w", page.Number, err)
	}
	return sess.ReplacePageImage(pageID, img.Data, img.MimeType, page.Mode)
}

// ExtendPage は確定ページをより大きなキャンバスへ外挿し、結果で画像と
// ページ形態（単ページ→見開き化など）を差し替えます。
func (o *Orchestrator) ExtendPage(ctx context.Context, sess *session.Session, pageID string, canvas, mask []byte, newMode domain.PageMode) error {
	page, ok := sess.FindPage(pageID)
	if !ok {
		return fmt.Errorf("ページID %s が見つかりません", pageID)
	}
	img, err := o.synth.Extend(ctx, page.StoryText, canvas, mask)
	if err != nil {
		return fmt.Errorf("ページ %d の外挿に失敗しました: %w", page.Number, err)
	}
	return sess.ReplacePageImage(pageID, img.Data, img.MimeType, newMode)
}

// GenerateEntityReference はエンティティの設定画を1枚生成して返します。
// 呼び出し側が結果を確認してから台帳の参照画像を更新する想定です。
func (o *Orchestrator) GenerateEntityReference(ctx context.Context, prompt string) (*Image, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	img, err := o.synth.GenerateReference(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("設定画の生成に失敗しました: %w", err)
	}
	return img, nil
}
