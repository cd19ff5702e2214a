package ingestrunner

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/lewisfm/camrete/internal/catalogstore"
)

func buildTarGz(t *testing.T, identifier string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	content := []byte(`{"spec_version":1,"name":"` + identifier + `","identifier":"` + identifier +
		`","version":"1.0","abstract":"s","download":"https://h/f","author":"a"}`)
	tw.WriteHeader(&tar.Header{Name: identifier + "-1.0.ckan", Size: int64(len(content)), Mode: 0o644})
	tw.Write(content)
	tw.Close()
	gzw.Close()
	return buf.Bytes()
}

func openTestStore(t *testing.T) *catalogstore.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := catalogstore.Open(context.Background(), filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertRepo(t *testing.T, s *catalogstore.Store, name, url string) {
	t.Helper()
	if _, err := s.AddRepository(context.Background(), name, url, 0); err != nil {
		t.Fatal(err)
	}
}

func TestRunIngestsGoodRepoAndReportsBadRepo(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/gzip")
		w.Write(buildTarGz(t, "Foo"))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	s := openTestStore(t)
	insertRepo(t, s, "good", good.URL)
	insertRepo(t, s, "bad", bad.URL)

	err := Run(context.Background(), s, http.DefaultClient, 2, nil)
	if err == nil {
		t.Fatal("expected an aggregated error naming the bad repository")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error to mention repository %q, got: %v", "bad", err)
	}
	if strings.Contains(err.Error(), "\tgood:") {
		t.Fatalf("did not expect the good repository to be reported as failed: %v", err)
	}

	rel, err := s.NewestRelease(context.Background(), "Foo")
	if err != nil {
		t.Fatalf("expected Foo to have ingested despite the bad repository failing: %v", err)
	}
	if rel.DisplayName != "Foo" {
		t.Fatalf("got display name %q", rel.DisplayName)
	}
}
