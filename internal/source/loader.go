// Package source resolves an image reference (http(s) URL, data URL, local
// path or bare base64) into a decoded image.
package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/color-contrast-mcp/internal/metrics"
)

var (
	// ErrUnsupportedSource is returned when a reference is none of the accepted forms.
	ErrUnsupportedSource = errors.New("unsupported image source")

	// ErrTooLarge is returned when the encoded image exceeds the byte limit.
	ErrTooLarge = errors.New("image exceeds size limit")
)

// Kind is the form of an image reference.
type Kind string

const (
	KindURL     Kind = "url"
	KindDataURL Kind = "data_url"
	KindPath    Kind = "path"
	KindBase64  Kind = "base64"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 20 << 20
	UserAgentName   = "color-contrast-mcp"
)

// Options configures a Loader.
type Options struct {
	// FetchTimeout bounds a URL download. Zero means DefaultTimeout.
	FetchTimeout time.Duration

	// MaxBytes bounds the encoded image size for every kind. Zero means DefaultMaxBytes.
	MaxBytes int64

	// AllowLocalFiles permits path references. When false the file system
	// is never consulted: a path is treated as base64 and fails to decode
	// the same way whether or not the file exists.
	AllowLocalFiles bool

	// UserAgent is sent with URL downloads.
	UserAgent string
}

// Image is a decoded image together with where it came from.
type Image struct {
	image.Image
	Kind   Kind
	Format string
	Ref    string
	Bytes  int
}

// Width returns the image width in pixels.
func (i *Image) Width() int { return i.Bounds().Dx() }

// Height returns the image height in pixels.
func (i *Image) Height() int { return i.Bounds().Dy() }

// Loader loads images. It is safe for concurrent use.
type Loader struct {
	opts    Options
	client  *http.Client
	cache   *Cache
	logger  hclog.Logger
	metrics *metrics.Metrics
}

// NewLoader creates a Loader. cache may be nil to disable caching of URL and
// path loads; logger may be nil.
func NewLoader(opts Options, cache *Cache, logger hclog.Logger, m *metrics.Metrics) *Loader {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgentName
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Loader{
		opts:    opts,
		client:  &http.Client{Timeout: opts.FetchTimeout},
		cache:   cache,
		logger:  logger,
		metrics: m,
	}
}

// Classify reports the kind of ref without loading it. A reference that is
// not a URL, a data URL or, when local files are allowed, an existing file
// is treated as base64.
func (l *Loader) Classify(ref string) Kind {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return KindDataURL
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindURL
	}
	if !l.opts.AllowLocalFiles {
		return KindBase64
	}
	if fi, err := os.Stat(ref); err == nil && !fi.IsDir() {
		return KindPath
	}
	return KindBase64
}

// Load resolves ref and decodes the image.
func (l *Loader) Load(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrUnsupportedSource)
	}

	kind := l.Classify(ref)
	img, err := l.load(ctx, kind, ref)
	l.metrics.RecordSourceLoad(string(kind), err)
	if err != nil {
		l.logger.Warn("image load failed", "kind", kind, "ref", Describe(ref), "error", err)
		return nil, err
	}
	l.logger.Debug("image loaded", "kind", kind, "ref", img.Ref, "format", img.Format,
		"width", img.Width(), "height", img.Height())
	return img, nil
}

func (l *Loader) load(ctx context.Context, kind Kind, ref string) (*Image, error) {
	cacheable := kind == KindURL || kind == KindPath
	if cacheable && l.cache != nil {
		if img, ok := l.cache.Get(ref); ok {
			return img, nil
		}
	}

	var (
		data []byte
		err  error
	)
	switch kind {
	case KindURL:
		data, err = l.fetch(ctx, ref)
	case KindDataURL:
		data, err = decodeDataURL(ref)
	case KindPath:
		data, err = l.readFile(ref)
	default:
		data, err = decodeBase64(ref)
	}
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, len(data), l.opts.MaxBytes)
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img := &Image{Image: decoded, Kind: kind, Format: format, Ref: Describe(ref), Bytes: len(data)}
	if cacheable && l.cache != nil {
		l.cache.Put(ref, img)
	}
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", l.opts.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	if resp.ContentLength > l.opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, resp.ContentLength, l.opts.MaxBytes)
	}

	return readLimited(resp.Body, l.opts.MaxBytes)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return readLimited(f, l.opts.MaxBytes)
}

// readLimited reads at most max bytes and fails if r holds more.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, max)
	}
	return data, nil
}

func decodeDataURL(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: data URL without payload", ErrUnsupportedSource)
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if !strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return nil, fmt.Errorf("%w: data URL must be base64 encoded", ErrUnsupportedSource)
	}
	return decodeBase64(payload)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(s); err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: not a URL, data URL, existing file or base64 image", ErrUnsupportedSource)
}

// Describe shortens a reference for logs and reports. URLs and paths are kept;
// inline data is replaced by its kind and length.
func Describe(ref string) string {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "data:"):
		meta := ref
		if i := strings.IndexByte(ref, ','); i >= 0 {
			meta = ref[:i]
		}
		return fmt.Sprintf("%s,<%d bytes>", meta, len(ref))
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return ref
	}
	if len(ref) > 256 {
		return fmt.Sprintf("base64:<%d chars>", len(ref))
	}
	return ref
}
