// Package storage は自動保存スナップショットの保存先となる
// 単純なキー付きバイナリストアを提供します。
package storage

import "context"

// AutosaveKey は「現在の作業状態」を指す固定キーです。
const AutosaveKey = "current"

// BlobStore はキー付きバイナリの保存・読込の契約です。
// Load は未保存のキーに対して (nil, nil) を返します。
type BlobStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Close() error
}
