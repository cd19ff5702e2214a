package download

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/mock/gomock"

	"github.com/lewisfm/camrete/catalog"
	"github.com/lewisfm/camrete/progress"
)

func buildTarGz(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	content := []byte(`{"identifier":"Foo"}`)
	tw.WriteHeader(&tar.Header{Name: "Foo-1.0.ckan", Size: int64(len(content)), Mode: 0o644})
	tw.Write(content)
	tw.Close()
	gzw.Close()
	return buf.Bytes()
}

func TestFetchGzipContentType(t *testing.T) {
	data := buildTarGz(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != Accept {
			t.Errorf("unexpected Accept header: %s", got)
		}
		w.Header().Set("Content-Type", "application/gzip")
		w.Header().Set("ETag", `"abc123"`)
		w.Write(data)
	}))
	defer srv.Close()

	rep := progress.New(nil)
	res, err := Fetch(context.Background(), srv.Client(), "camrete/test", srv.URL, rep)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.ETag != `"abc123"` {
		t.Errorf("got etag %q", res.ETag)
	}

	var count int
	for _, err := range res.Loader.AssetStream() {
		if err != nil {
			t.Fatal(err)
		}
		count++
	}
	if count != 1 {
		t.Fatalf("expected 1 asset, got %d", count)
	}
	if rep.Snapshot().BytesDownloaded == 0 {
		t.Error("expected bytes_downloaded to have advanced")
	}
}

func TestFetchSniffsContentTypeFromURLSuffix(t *testing.T) {
	data := buildTarGz(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	res, err := Fetch(context.Background(), srv.Client(), "", srv.URL+"/repo.tar.gz", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
}

func TestFetchMissingContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("junk"))
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), "", srv.URL, nil)
	if _, ok := err.(*catalog.FormatUnknownError); !ok {
		t.Fatalf("expected FormatUnknownError, got %v", err)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), "", srv.URL+"/repo.tar.gz", nil)
	if _, ok := err.(*catalog.TransportError); !ok {
		t.Fatalf("expected TransportError, got %v (%T)", err, err)
	}
}

func TestFetchTransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	rt := NewMockRoundTripper(ctrl)
	wantErr := errors.New("connection refused")
	rt.EXPECT().RoundTrip(gomock.Any()).Return(nil, wantErr)

	client := &http.Client{Transport: rt}
	_, err := Fetch(context.Background(), client, "", "https://repo.example/mods.tar.gz", nil)

	var te *catalog.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v (%T)", err, err)
	}
	if !errors.Is(te, wantErr) {
		t.Errorf("expected wrapped error to be %v, got %v", wantErr, te.Unwrap())
	}
}

func TestFetchZipRecognizedButUnsupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), "", srv.URL, nil)
	if err == nil {
		t.Fatal("expected error for zip content type")
	}
}
