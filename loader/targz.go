package loader

import (
	"archive/tar"
	"fmt"
	"io"
	"iter"

	"github.com/klauspost/compress/gzip"

	"github.com/lewisfm/camrete/asset"
)

// TarGzAssetLoader reads a gzip-wrapped tar byte stream sequentially,
// gzip-decoding and un-tarring on the fly. It never buffers the archive as
// a whole: only accepted entries are read fully into memory, and that's
// bounded by an individual asset's size (tens of KB worst case).
type TarGzAssetLoader struct {
	r io.Reader
}

// NewTarGzAssetLoader wraps r, a gzip-compressed tar byte stream.
func NewTarGzAssetLoader(r io.Reader) *TarGzAssetLoader {
	return &TarGzAssetLoader{r: r}
}

func (l *TarGzAssetLoader) AssetStream() iter.Seq2[asset.Buf, error] {
	return func(yield func(asset.Buf, error) bool) {
		gzr, err := gzip.NewReader(l.r)
		if err != nil {
			yield(asset.Buf{}, fmt.Errorf("tar-gz loader: %w", err))
			return
		}
		defer gzr.Close()

		tr := tar.NewReader(gzr)
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(asset.Buf{}, fmt.Errorf("tar-gz loader: %w", err))
				return
			}

			if hdr.Typeflag != tar.TypeReg {
				continue
			}

			variant := asset.FromPath(hdr.Name)
			if variant == asset.NotAnAsset {
				// Discard the bytes without keeping them; the entry is
				// simply skipped, not an error.
				continue
			}

			data, err := io.ReadAll(tr)
			if err != nil {
				yield(asset.Buf{}, fmt.Errorf("tar-gz loader: reading %s: %w", hdr.Name, err))
				return
			}

			if !yield(asset.Buf{Path: hdr.Name, Variant: variant, Data: data}, nil) {
				return
			}
		}
	}
}
