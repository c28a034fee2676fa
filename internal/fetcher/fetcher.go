// Package fetcher retrieves resized, recompressed variants of remote report photos
// for embedding into exported documents.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laporan_image_cache_hits_total",
		Help: "Total number of image variant cache hits.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laporan_image_cache_misses_total",
		Help: "Total number of image variant cache misses.",
	})
	fetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laporan_image_fetch_failures_total",
		Help: "Total number of failed image variant fetches by reason.",
	}, []string{"reason"})
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 10 << 20
	// 40 megapixels decodes to about 160 MB of RGBA.
	defaultMaxPixels = 40_000_000
	defaultQuality  = 75
)

// Reason classifies a FetchError.
type Reason string

const (
	ReasonURL      Reason = "url"
	ReasonRequest  Reason = "request"
	ReasonStatus   Reason = "status"
	ReasonTooLarge Reason = "too_large"
	ReasonDecode   Reason = "decode"
	ReasonEncode   Reason = "encode"
)

// FetchError is the typed failure of FetchVariant. It is recoverable: callers
// are expected to carry on without the image.
type FetchError struct {
	URL        string
	Reason     Reason
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Reason == ReasonStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configure a Fetcher. Zero values pick sensible defaults.
type Options struct {
	// Client defaults to an OpenTelemetry instrumented client.
	Client      *http.Client
	Timeout     time.Duration
	Transformer URLTransformer
	MaxBytes    int64
	// MaxPixels caps width*height before decoding; the body size alone does
	// not bound the memory a decoded image needs.
	MaxPixels int
	// CacheSize > 0 enables a TTL cache of encoded variants.
	CacheSize int
	CacheTTL  time.Duration
}

// Fetcher performs a single GET per variant (no retries) and normalizes the result to JPEG.
// It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	transform URLTransformer
	maxBytes  int64
	maxPixels int
	cache     *expirable.LRU[string, []byte]
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		timeout:   opts.Timeout,
		transform: opts.Transformer,
		maxBytes:  opts.MaxBytes,
		maxPixels: opts.MaxPixels,
	}
	if f.client == nil {
		f.client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if f.timeout <= 0 {
		f.timeout = defaultTimeout
	}
	if f.transform == nil {
		f.transform = NoTransform{}
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxBytes
	}
	if f.maxPixels <= 0 {
		f.maxPixels = defaultMaxPixels
	}
	if opts.CacheSize > 0 {
		f.cache = expirable.NewLRU[string, []byte](opts.CacheSize, nil, opts.CacheTTL)
	}
	return f
}

// FetchVariant returns JPEG bytes of sourceURL bounded by v.Width x v.Height.
// Every failure is a *FetchError.
func (f *Fetcher) FetchVariant(ctx context.Context, sourceURL string, v Variant) ([]byte, error) {
	key := v.key(sourceURL)
	if f.cache != nil {
		if b, ok := f.cache.Get(key); ok {
			cacheHitsTotal.Inc()
			return b, nil
		}
		cacheMissesTotal.Inc()
	}

	b, err := f.fetch(ctx, sourceURL, v)
	if err != nil {
		if fe, ok := err.(*FetchError); ok {
			fetchFailuresTotal.WithLabelValues(string(fe.Reason)).Inc()
		}
		return nil, err
	}

	if f.cache != nil {
		f.cache.Add(key, b)
	}
	return b, nil
}

func (f *Fetcher) fetch(ctx context.Context, sourceURL string, v Variant) ([]byte, error) {
	target, err := f.transform.Transform(sourceURL, v)
	if err != nil {
		return nil, &FetchError{URL: sourceURL, Reason: ReasonURL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Reason: ReasonURL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Reason: ReasonRequest, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: target, Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: target, Reason: ReasonRequest, Err: err}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &FetchError{URL: target, Reason: ReasonTooLarge, Err: fmt.Errorf("body exceeds %d bytes", f.maxBytes)}
	}

	out, reason, err := recompress(body, v, f.maxPixels)
	if err != nil {
		return nil, &FetchError{URL: target, Reason: reason, Err: err}
	}
	return out, nil
}

// recompress decodes an image, shrinks it into the variant box and encodes it as JPEG.
// Images already inside the box are never upscaled. Images with more than
// maxPixels pixels are rejected from their header, before any pixel is decoded.
func recompress(b []byte, v Variant, maxPixels int) ([]byte, Reason, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, ReasonDecode, err
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, ReasonTooLarge, fmt.Errorf("image is %dx%d, over %d pixels", cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ReasonDecode, err
	}

	bounds := img.Bounds()
	w, h := v.Width, v.Height
	if w <= 0 {
		w = bounds.Dx()
	}
	if h <= 0 {
		h = bounds.Dy()
	}
	if bounds.Dx() > w || bounds.Dy() > h {
		if v.Fit == "fill" {
			img = imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
		} else {
			img = imaging.Fit(img, w, h, imaging.Lanczos)
		}
	}

	q := v.Quality
	if q <= 0 || q > 100 {
		q = defaultQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, ReasonEncode, err
	}
	return buf.Bytes(), "", nil
}
