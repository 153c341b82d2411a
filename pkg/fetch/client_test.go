package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cifworks/go-cifmodel/internal/model"
)

func TestFetch_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "go-cifmodel") {
			t.Errorf("User-Agent = %q, want go-cifmodel prefix", got)
		}
		w.Write([]byte("data_on_this_dictionary\n"))
	}))
	defer srv.Close()

	c := NewClient()
	body, err := c.Fetch(context.Background(), srv.URL+"/cif_core.dic")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "data_on_this_dictionary\n" {
		t.Fatalf("body = %q", body)
	}
}

func TestFetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient()
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestDownload_NamesFileFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("_dictionary.title X\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient()

	dest, err := c.Download(context.Background(), srv.URL+"/dicts/cif_mag.dic", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(dest) != "cif_mag.dic" {
		t.Errorf("dest = %q, want basename cif_mag.dic", dest)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "_dictionary.title X\n" {
		t.Errorf("downloaded content = %q", data)
	}

	// No temp leftovers.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 file in dest dir, got %d", len(entries))
	}
}

func TestCatalog_CoversAllDictionaries(t *testing.T) {
	entries := Catalog()
	if len(entries) != 11 {
		t.Fatalf("catalog has %d entries, want 11", len(entries))
	}

	types := make(map[model.DictType]bool)
	for _, e := range entries {
		if !strings.HasPrefix(e.URL, "https://raw.githubusercontent.com/COMCIFS/") {
			t.Errorf("%s: URL %q is not a COMCIFS raw URL", e.Key, e.URL)
		}
		if e.DictType == "" {
			t.Errorf("%s: missing DictType", e.Key)
		}
		types[e.DictType] = true
	}
	if !types[model.DictTypeCore] || !types[model.DictTypePowder] || !types[model.DictTypeTwinning] {
		t.Error("catalog missing an expected dictionary type")
	}
}

func TestFetchAll_CollectsPerEntryErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	entries := []CatalogEntry{
		{Key: "good", URL: srv.URL + "/good.dic"},
		{Key: "bad", URL: srv.URL + "/bad.dic"},
	}

	c := NewClient()
	results := c.FetchAll(context.Background(), entries, 2)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Err != nil || string(results[0].Data) != "ok" {
		t.Errorf("good entry: data=%q err=%v", results[0].Data, results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("bad entry: expected error")
	}
}
