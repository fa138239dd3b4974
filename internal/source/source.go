package source

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxFrames bounds how many embedded documents one pass will fetch. The
// portal pages carry at most a handful of frames; anything beyond this is a
// malformed page, not more data.
const maxFrames = 16

// Document is one fetched, parsed HTML document in the hierarchy.
type Document struct {
	Ref  string
	Root *html.Node
}

// Fetcher loads documents by reference and decides which embedded references
// are same-origin and therefore reachable.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*Document, error)
	// Resolve turns a frame src relative to base into a fetchable reference.
	// ok=false marks a cross-origin embed, which is silently skipped.
	Resolve(base, ref string) (string, bool)
}

// LoadHierarchy fetches the root document plus every same-origin embedded
// frame document reachable from it. Frames do not recurse into further
// embeds. A frame that cannot be fetched is skipped; the remaining documents
// are still returned. Only a root fetch failure is an error.
func LoadHierarchy(ctx context.Context, f Fetcher, root string) ([]*Document, error) {
	doc, err := f.Fetch(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("fetch root %s: %w", root, err)
	}
	docs := []*Document{doc}
	for _, src := range frameRefs(doc.Root) {
		if len(docs) > maxFrames {
			break
		}
		ref, ok := f.Resolve(root, src)
		if !ok {
			continue
		}
		sub, err := f.Fetch(ctx, ref)
		if err != nil {
			log.Printf("frame fetch skipped ref=%s err=%v", ref, err)
			continue
		}
		docs = append(docs, sub)
	}
	return docs, nil
}

// frameRefs collects iframe/frame src attributes in document order.
func frameRefs(root *html.Node) []string {
	var refs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "iframe" || n.Data == "frame") {
			for _, a := range n.Attr {
				if a.Key == "src" && strings.TrimSpace(a.Val) != "" {
					refs = append(refs, strings.TrimSpace(a.Val))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return refs
}

// FileFetcher reads documents from the local filesystem. Same-origin means
// staying inside the root document's directory subtree.
type FileFetcher struct {
	BaseDir string
}

func NewFileFetcher(rootPath string) *FileFetcher {
	return &FileFetcher{BaseDir: filepath.Dir(rootPath)}
}

func (f *FileFetcher) Fetch(ctx context.Context, ref string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(ref)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	node, err := html.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ref, err)
	}
	return &Document{Ref: ref, Root: node}, nil
}

func (f *FileFetcher) Resolve(base, ref string) (string, bool) {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return "", false
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(base), ref))
	rel, err := filepath.Rel(f.BaseDir, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return resolved, true
}

// HTTPFetcher reads documents over HTTP. Same-origin means the frame resolves
// to the root document's scheme and host.
type HTTPFetcher struct {
	Client *http.Client
	origin *url.URL
}

func NewHTTPFetcher(rootURL string) (*HTTPFetcher, error) {
	u, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("parse root url: %w", err)
	}
	return &HTTPFetcher{
		Client: &http.Client{Timeout: 15 * time.Second},
		origin: u,
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", ref, resp.StatusCode)
	}
	node, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ref, err)
	}
	return &Document{Ref: ref, Root: node}, nil
}

func (f *HTTPFetcher) Resolve(base, ref string) (string, bool) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	u, err := baseURL.Parse(ref)
	if err != nil {
		return "", false
	}
	if u.Scheme != f.origin.Scheme || u.Host != f.origin.Host {
		return "", false
	}
	return u.String(), true
}
