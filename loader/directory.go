package loader

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/lewisfm/camrete/asset"
)

// DirectoryAssetLoader walks a directory on disk as if it were an
// uncompressed archive, classifying each regular file it finds. It obeys
// the same AssetLoader contract as TarGzAssetLoader and exists for tests
// and for operators who have already extracted a repository archive.
type DirectoryAssetLoader struct {
	root string
}

// NewDirectoryAssetLoader returns a loader rooted at root.
func NewDirectoryAssetLoader(root string) *DirectoryAssetLoader {
	return &DirectoryAssetLoader{root: root}
}

func (l *DirectoryAssetLoader) AssetStream() iter.Seq2[asset.Buf, error] {
	return func(yield func(asset.Buf, error) bool) {
		err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(l.root, path)
			if err != nil {
				return err
			}

			variant := asset.FromPath(rel)
			if variant == asset.NotAnAsset {
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			if !yield(asset.Buf{Path: rel, Variant: variant, Data: data}, nil) {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil && err != fs.SkipAll {
			yield(asset.Buf{}, fmt.Errorf("directory loader: %w", err))
		}
	}
}
