package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-comic-studio/pkg/prompts"
)

// Gatherer は出場エンティティの参照画像を並行で収集します。
// 取得結果はTTLキャッシュに保持し、同一URLへの同時要求は singleflight で集約します。
type Gatherer struct {
	fetcher Fetcher
	cache   *cache.Cache
	group   singleflight.Group
}

// NewGatherer は Gatherer を初期化します。
func NewGatherer(fetcher Fetcher) *Gatherer {
	return &Gatherer{
		fetcher: fetcher,
		cache:   cache.New(30*time.Minute, 1*time.Hour),
	}
}

// GatherResult は収集の結果です。個々の失敗は他のエンティティの収集を妨げません。
type GatherResult struct {
	References []ReferenceImage
	// Failed は参照画像を用意できなかったエンティティ名→原因です。
	Failed map[string]error
}

// Gather はマニフェストの全エンティティの参照画像を収集します。
// 参照URLを持たない・取得に失敗したエンティティは Failed に記録し、
// 成功した分は番号順を保って返します。
func (g *Gatherer) Gather(ctx context.Context, manifest []prompts.EntityRef) GatherResult {
	refs := make([]*ReferenceImage, len(manifest))
	failed := make(map[string]error)
	var mu sync.Mutex // failed への並行書き込みを保護する
	eg, egCtx := errgroup.WithContext(ctx)

	for i, ref := range manifest {
		i, ref := i, ref
		eg.Go(func() error {
			if ref.Entity.ReferenceURL == "" {
				mu.Lock()
				failed[ref.Entity.Name] = fmt.Errorf("参照画像が登録されていません")
				mu.Unlock()
				return nil
			}
			data, mimeType, err := g.fetch(egCtx, ref.Entity.ReferenceURL)
			if err != nil {
				slog.Warn("参照画像の取得に失敗しました", "entity", ref.Entity.Name, "error", err)
				mu.Lock()
				failed[ref.Entity.Name] = err
				mu.Unlock()
				return nil
			}
			refs[i] = &ReferenceImage{
				Entity:   ref.Entity,
				Index:    ref.Index,
				URL:      ref.Entity.ReferenceURL,
				Data:     data,
				MimeType: mimeType,
			}
			return nil
		})
	}
	// 個々の失敗は nil で返しているため Wait がエラーになるのは ctx 起因のみ
	if err := eg.Wait(); err != nil {
		for _, ref := range manifest {
			if _, ok := failed[ref.Entity.Name]; !ok {
				failed[ref.Entity.Name] = err
			}
		}
	}

	result := GatherResult{Failed: failed}
	for _, r := range refs {
		if r != nil {
			result.References = append(result.References, *r)
		}
	}
	return result
}

// fetch はキャッシュと singleflight を通して1枚の参照画像を取得します。
func (g *Gatherer) fetch(ctx context.Context, url string) ([]byte, string, error) {
	type cached struct {
		data     []byte
		mimeType string
	}

	if v, ok := g.cache.Get(url); ok {
		c := v.(cached)
		return c.data, c.mimeType, nil
	}

	v, err, _ := g.group.Do(url, func() (interface{}, error) {
		if v, ok := g.cache.Get(url); ok {
			return v.(cached), nil
		}
		data, mimeType, err := g.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		c := cached{data: data, mimeType: mimeType}
		g.cache.Set(url, c, cache.DefaultExpiration)
		return c, nil
	})
	if err != nil {
		return nil, "", err
	}
	c, ok := v.(cached)
	if !ok {
		return nil, "", fmt.Errorf("unexpected return type from singleflight: %T", v)
	}
	return c.data, c.mimeType, nil
}
