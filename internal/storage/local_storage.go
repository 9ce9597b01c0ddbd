package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalFileFetcher reads images from disk, confined to a root directory
type LocalFileFetcher struct {
	root string
}

func NewLocalFileFetcher(root string) (*LocalFileFetcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve image root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("image root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("image root %q is not a directory", abs)
	}
	return &LocalFileFetcher{root: abs}, nil
}

// resolve maps file:///path or a bare path to a location under root
func (l *LocalFileFetcher) resolve(ref string) (string, error) {
	p := ref
	if strings.HasPrefix(ref, "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("invalid file reference: %w", err)
		}
		p = u.Path
	}

	var full string
	if filepath.IsAbs(p) && strings.HasPrefix(filepath.Clean(p), l.root+string(filepath.Separator)) {
		full = filepath.Clean(p)
	} else {
		full = filepath.Join(l.root, filepath.Clean("/"+p))
	}

	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("file reference %q escapes image root", ref)
	}
	return full, nil
}

func (l *LocalFileFetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return decodeImage(f)
}
