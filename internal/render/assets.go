package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// writeFile writes data below root at the slash-separated rel path.
func writeFile(root, rel string, data []byte) error {
	target := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	inside, err := filepath.Rel(root, target)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to write %s outside %s", rel, root)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// copyLinkedFiles publishes every file referenced by a post, once per route,
// in route order. Raster images wider than the configured maximum are scaled down.
func (r *Renderer) copyLinkedFiles(stage string, graph *site.Graph) (int, error) {
	sources := make(map[string]string)
	for _, p := range graph.Posts() {
		for _, f := range p.Doc.LinkedFiles {
			sources[f.Route] = f.Source
		}
	}
	routes := make([]string, 0, len(sources))
	for route := range sources {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	for _, route := range routes {
		data, err := os.ReadFile(sources[route])
		if err != nil {
			return 0, fmt.Errorf("read linked file: %w", err)
		}
		if scaled, ok, err := r.downscale(data); err != nil {
			r.logger.Warn("Image could not be resized, copying original", logfields.Path(sources[route]), logfields.Error(err))
		} else if ok {
			data = scaled
		}
		if err := writeFile(stage, route, data); err != nil {
			return 0, err
		}
	}
	return len(routes), nil
}

// downscale re-encodes JPEG and PNG images wider than MaxImageWidth. It
// reports false when the image is left as is.
func (r *Renderer) downscale(data []byte) ([]byte, bool, error) {
	maxWidth := r.cfg.MaxImageWidth
	if maxWidth <= 0 {
		return nil, false, nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= maxWidth || (format != "jpeg" && format != "png") {
		return nil, false, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	height := cfg.Height * maxWidth / cfg.Width
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if format == "jpeg" {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	} else {
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

// copyStaticDir mirrors the static directory into the output root.
func (r *Renderer) copyStaticDir(stage string) (int, error) {
	if r.staticDir == "" {
		return 0, nil
	}
	info, err := os.Stat(r.staticDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("static path %s is not a directory", r.staticDir)
	}

	copied := 0
	err = filepath.WalkDir(r.staticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(r.staticDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(stage, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- path comes from walking the configured static dir
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 -- target is inside the staging dir
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
