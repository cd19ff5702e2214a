package loader

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/lewisfm/camrete/asset"
)

func buildTarGz(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func collect(t *testing.T, l AssetLoader) []asset.Buf {
	t.Helper()
	var got []asset.Buf
	for buf, err := range l.AssetStream() {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		got = append(got, buf)
	}
	return got
}

func TestTarGzAssetLoaderSkipsNonAssets(t *testing.T) {
	data := buildTarGz(t, map[string]string{
		"ksp/Foo/Foo-1.0.ckan": `{"identifier":"Foo"}`,
		"ksp/.DS_Store":        "junk",
		"builds.json":          `{"builds":{}}`,
	})

	got := collect(t, NewTarGzAssetLoader(bytes.NewReader(data)))
	if len(got) != 2 {
		t.Fatalf("expected 2 assets, got %d: %+v", len(got), got)
	}

	variants := map[string]asset.Variant{}
	for _, b := range got {
		variants[b.Path] = b.Variant
	}
	if variants["ksp/Foo/Foo-1.0.ckan"] != asset.Release {
		t.Errorf("expected Release variant")
	}
	if variants["builds.json"] != asset.Builds {
		t.Errorf("expected Builds variant")
	}
}

func TestTarGzAssetLoaderCorruptStream(t *testing.T) {
	l := NewTarGzAssetLoader(bytes.NewReader([]byte("not gzip data")))
	var sawErr bool
	for _, err := range l.AssetStream() {
		if err != nil {
			sawErr = true
		}
	}
	if !sawErr {
		t.Fatal("expected a stream error for corrupt input")
	}
}

func TestInMemoryAssetLoaderReplaysInOrder(t *testing.T) {
	want := []asset.Buf{
		{Path: "a.ckan", Variant: asset.Release, Data: []byte("1")},
		{Path: "builds.json", Variant: asset.Builds, Data: []byte("2")},
	}
	got := collect(t, NewInMemoryAssetLoader(want))
	if len(got) != len(want) {
		t.Fatalf("got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Path != want[i].Path {
			t.Errorf("index %d: got %s want %s", i, got[i].Path, want[i].Path)
		}
	}
}

func TestDirectoryAssetLoaderWalksAndSkips(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "ksp", "Foo"), 0o755)
	os.WriteFile(filepath.Join(dir, "ksp", "Foo", "Foo-1.0.ckan"), []byte(`{}`), 0o644)
	os.WriteFile(filepath.Join(dir, "README"), []byte("not an asset"), 0o644)
	os.WriteFile(filepath.Join(dir, "download_counts.json"), []byte(`{}`), 0o644)

	got := collect(t, NewDirectoryAssetLoader(dir))
	if len(got) != 2 {
		t.Fatalf("expected 2 assets, got %d: %+v", len(got), got)
	}
}
