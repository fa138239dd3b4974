package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadHierarchyFollowsSameOriginFrames(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.html", `<html><body>
		<iframe src="inner.html"></iframe>
		<iframe src="https://other.example/evil.html"></iframe>
		<iframe src="../outside.html"></iframe>
	</body></html>`)
	writeFile(t, dir, "inner.html", `<html><body><table></table></body></html>`)

	docs, err := LoadHierarchy(context.Background(), NewFileFetcher(root), root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected root + 1 same-origin frame, got %d docs", len(docs))
	}
	if filepath.Base(docs[1].Ref) != "inner.html" {
		t.Fatalf("unexpected frame doc: %s", docs[1].Ref)
	}
}

func TestLoadHierarchySkipsUnreadableFrame(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.html", `<html><body><iframe src="missing.html"></iframe></body></html>`)

	docs, err := LoadHierarchy(context.Background(), NewFileFetcher(root), root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("unreadable frame should be skipped, got %d docs", len(docs))
	}
}

func TestLoadHierarchyRootFailure(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.html")
	if _, err := LoadHierarchy(context.Background(), NewFileFetcher(missing), missing); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestHTTPFetcherSameOrigin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/root.html":
			_, _ = w.Write([]byte(`<html><body><iframe src="/inner.html"></iframe><iframe src="http://elsewhere.invalid/x.html"></iframe></body></html>`))
		case "/inner.html":
			_, _ = w.Write([]byte(`<html><body><p>inner</p></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL + "/root.html")
	if err != nil {
		t.Fatal(err)
	}
	docs, err := LoadHierarchy(context.Background(), f, srv.URL+"/root.html")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
}

func TestFileResolveRejectsEscapes(t *testing.T) {
	f := &FileFetcher{BaseDir: "/srv/portal"}
	if _, ok := f.Resolve("/srv/portal/root.html", "../secrets.html"); ok {
		t.Fatalf("escape above base dir must be cross-origin")
	}
	if _, ok := f.Resolve("/srv/portal/root.html", "http://x.invalid/a.html"); ok {
		t.Fatalf("absolute URL must be cross-origin for file sources")
	}
	got, ok := f.Resolve("/srv/portal/root.html", "frames/inner.html")
	if !ok || got != "/srv/portal/frames/inner.html" {
		t.Fatalf("resolve = %q ok=%v", got, ok)
	}
}
