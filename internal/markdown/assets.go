package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/webp" // register decoder

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// StaticPrefix is the route prefix linked files are published under.
const StaticPrefix = "/static/"

// AssetResolver maps a link destination found in a document to a publishable file.
type AssetResolver interface {
	// Resolve returns the file for dest relative to dir, or false when dest is
	// not a local file that should be copied.
	Resolve(dir, dest string) (*LinkedFile, bool)
}

// FileResolver resolves destinations against the local filesystem. Only
// files below root are resolved; with an empty root each document may link
// files below its own directory. Results are cached per source path so a file
// referenced twice is hashed once.
type FileResolver struct {
	root  string
	mu    sync.Mutex
	cache map[string]*LinkedFile
}

// NewFileResolver creates an empty resolver confined to root.
func NewFileResolver(root string) *FileResolver {
	r := &FileResolver{cache: make(map[string]*LinkedFile)}
	if root != "" {
		r.root = canonicalPath(root)
	}
	return r
}

// Resolve implements AssetResolver.
func (r *FileResolver) Resolve(dir, dest string) (*LinkedFile, bool) {
	rel, ok := localPath(dest)
	if !ok || dir == "" || content.IsMarkdown(rel) {
		return nil, false
	}
	source := filepath.Clean(filepath.Join(dir, filepath.FromSlash(rel)))
	if !r.contains(dir, source) {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.cache[source]; ok {
		return f, true
	}

	f, err := describe(source)
	if err != nil {
		return nil, false
	}
	r.cache[source] = f
	return f, true
}

// contains reports whether source, after following symlinks, lies below the
// resolver root or below dir when no root is set.
func (r *FileResolver) contains(dir, source string) bool {
	boundary := r.root
	if boundary == "" {
		boundary = canonicalPath(dir)
	}
	rel, err := filepath.Rel(boundary, canonicalPath(source))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func canonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// localPath returns the unescaped relative path of dest, or false for
// absolute URLs, rooted paths, fragments and mail links.
func localPath(dest string) (string, bool) {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return "", false
	}
	if u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return "", false
	}
	return u.Path, true
}

func describe(source string) (*LinkedFile, error) {
	fh, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, os.ErrInvalid
	}

	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return nil, err
	}
	sum := hex.EncodeToString(h.Sum(nil))[:16]
	base := filepath.Base(source)

	f := &LinkedFile{
		Source: source,
		Route:  path.Join(StaticPrefix, sum, base),
		URL:    path.Join(StaticPrefix, sum, url.PathEscape(base)),
	}
	if isRasterImage(base) {
		if _, err := fh.Seek(0, io.SeekStart); err == nil {
			if cfg, _, err := image.DecodeConfig(fh); err == nil {
				f.Width, f.Height = cfg.Width, cfg.Height
			}
		}
	}
	return f, nil
}

func isRasterImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}
