package loader

import (
	"iter"

	"github.com/lewisfm/camrete/asset"
)

// InMemoryAssetLoader replays a pre-collected slice of asset buffers. It
// exists primarily for tests that want to exercise C7 without going
// through an actual archive.
type InMemoryAssetLoader struct {
	bufs []asset.Buf
}

// NewInMemoryAssetLoader returns a loader that yields each of bufs, in
// order.
func NewInMemoryAssetLoader(bufs []asset.Buf) *InMemoryAssetLoader {
	return &InMemoryAssetLoader{bufs: bufs}
}

func (l *InMemoryAssetLoader) AssetStream() iter.Seq2[asset.Buf, error] {
	return func(yield func(asset.Buf, error) bool) {
		for _, b := range l.bufs {
			if !yield(b, nil) {
				return
			}
		}
	}
}
