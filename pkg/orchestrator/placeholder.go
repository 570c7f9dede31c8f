package orchestrator

// placeholderSVG は合成が再試行後も失敗した候補枠に入れる画像です。
// 本物の生成結果と絶対に取り違えないよう、失敗の旨を画像内に明記します。
const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="600" viewBox="0 0 400 600">
  <rect width="400" height="600" fill="#f2f2f2" stroke="#cc3333" stroke-width="8"/>
  <line x1="40" y1="40" x2="360" y2="560" stroke="#cc3333" stroke-width="6"/>
  <line x1="360" y1="40" x2="40" y2="560" stroke="#cc3333" stroke-width="6"/>
  <text x="200" y="300" text-anchor="middle" font-size="28" fill="#cc3333">生成失败</text>
  <text x="200" y="340" text-anchor="middle" font-size="16" fill="#666666">generation failed</text>
</svg>`

// PlaceholderMimeType はプレースホルダ画像のMIMEタイプです。
const PlaceholderMimeType = "image/svg+xml"

func placeholderImage() *Image {
	return &Image{Data: []byte(placeholderSVG), MimeType: PlaceholderMimeType}
}
