// Package loader turns a repository archive byte stream into a lazy
// sequence of classified asset buffers, without ever materializing the
// whole archive in memory.
package loader

import (
	"iter"

	"github.com/lewisfm/camrete/asset"
)

// AssetLoader is the single capability C7 needs from any archive source:
// a lazy sequence of asset.Buf. Implementations never leak their
// underlying reader type; callers range over AssetStream and stop early
// (e.g. on the first error) by simply breaking out of the loop.
type AssetLoader interface {
	// AssetStream yields one (asset.Buf, nil) pair per recognized entry, in
	// the order entries are read from the underlying source, or a single
	// (zero, error) pair if the stream itself cannot continue. Once an
	// error is yielded the sequence is exhausted; callers must stop
	// ranging.
	AssetStream() iter.Seq2[asset.Buf, error]
}
