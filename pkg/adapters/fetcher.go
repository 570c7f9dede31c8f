// Package adapters は外部サービスへの橋渡しを実装します。
// 画像合成（gemini-image-kit）・物語継続（go-gemini-client）・
// 参照画像取得（go-http-kit）を編成層のインターフェースへ適合させます。
package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/shouni/go-http-kit/httpkit"
)

// HTTPFetcher は共通HTTPクライアント経由で参照画像を取得します。
type HTTPFetcher struct {
	client httpkit.ClientInterface
}

// NewHTTPFetcher は HTTPFetcher を初期化します。
func NewHTTPFetcher(client httpkit.ClientInterface) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Fetch は URL から画像バイト列と MIME タイプを取得します。
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("参照画像リクエストの構築に失敗しました: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("参照画像の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("参照画像の取得に失敗しました: %s (status=%d)", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("参照画像の読み込みに失敗しました: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
