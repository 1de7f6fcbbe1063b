package pipeline

import (
	"bytes"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
)

const (
	imageEndpoint       = "/_next/image"
	defaultImageQuality = 75
)

// Assets is the image-asset phase.
type Assets struct {
	mu       sync.RWMutex
	optimize bool
}

// NewAssets returns an asset phase with optimization enabled, the framework
// default before directives are applied.
func NewAssets() *Assets {
	return &Assets{optimize: true}
}

// SetOptimization implements AssetPhase.
func (a *Assets) SetOptimization(enabled bool) {
	a.mu.Lock()
	a.optimize = enabled
	a.mu.Unlock()
}

// Optimized reports whether images are routed through the optimizer.
func (a *Assets) Optimized() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.optimize
}

// ImageURL returns the URL emitted for an image reference. Unoptimized images
// point straight at their source; optimized images point at the optimizer
// endpoint with the requested width and quality (75 when quality <= 0).
func (a *Assets) ImageURL(src string, width, quality int) (string, error) {
	if !a.Optimized() {
		return src, nil
	}
	if width <= 0 {
		return "", ErrInvalidImageWidth
	}
	if quality <= 0 {
		quality = defaultImageQuality
	}
	q := url.Values{}
	q.Set("url", src)
	q.Set("w", strconv.Itoa(width))
	q.Set("q", strconv.Itoa(quality))
	return imageEndpoint + "?" + q.Encode(), nil
}

// Handler serves files from root byte-identical to their source. Extension-less
// routes fall back to "<route>.html" and "<route>/index.html" so exported
// pages resolve under either trailing slash rule. The optimizer endpoint
// answers 501 when optimization is on, because no optimization runtime is
// available to this host, and 404 otherwise.
func (a *Assets) Handler(root fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == imageEndpoint {
			if a.Optimized() {
				http.Error(w, "image optimization runtime unavailable", http.StatusNotImplemented)
				return
			}
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name, ok := lookupAsset(root, r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		serveAsset(w, r, root, name)
	})
}

func lookupAsset(root fs.FS, requestPath string) (string, bool) {
	clean := strings.Trim(path.Clean("/"+requestPath), "/")
	var candidates []string
	switch {
	case clean == "":
		candidates = []string{"index.html"}
	case path.Ext(clean) != "":
		candidates = []string{clean}
	default:
		candidates = []string{clean, clean + ".html", clean + "/index.html"}
	}

	for _, name := range candidates {
		info, err := fs.Stat(root, name)
		if err == nil && !info.IsDir() {
			return name, true
		}
	}
	return "", false
}

func serveAsset(w http.ResponseWriter, r *http.Request, root fs.FS, name string) {
	f, err := root.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		content = bytes.NewReader(data)
	}

	http.ServeContent(w, r, path.Base(name), info.ModTime(), content)
}
