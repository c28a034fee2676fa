package fetcher

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Variant describes the resized/recompressed rendition requested for an image.
type Variant struct {
	Width   int
	Height  int
	Fit     string
	Quality int
}

func (v Variant) key(src string) string {
	return fmt.Sprintf("%s|%dx%d|%s|q%d", src, v.Width, v.Height, v.Fit, v.Quality)
}

// URLTransformer derives the URL of a variant from the stored source URL.
type URLTransformer interface {
	Transform(src string, v Variant) (string, error)
}

// NoTransform requests the source URL unchanged.
type NoTransform struct{}

func (NoTransform) Transform(src string, _ Variant) (string, error) {
	if _, err := url.ParseRequestURI(src); err != nil {
		return "", err
	}
	return src, nil
}

// QueryTransform appends w, h, fit and q query parameters, the scheme most image CDNs and proxies accept.
type QueryTransform struct{}

func (QueryTransform) Transform(src string, v Variant) (string, error) {
	u, err := url.ParseRequestURI(src)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if v.Width > 0 {
		q.Set("w", strconv.Itoa(v.Width))
	}
	if v.Height > 0 {
		q.Set("h", strconv.Itoa(v.Height))
	}
	if v.Fit != "" {
		q.Set("fit", v.Fit)
	}
	if v.Quality > 0 {
		q.Set("q", strconv.Itoa(v.Quality))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CloudinaryTransform inserts a transformation segment after "/upload/", e.g.
// .../image/upload/w_200,h_200,c_fit,q_60/v123/laporan_foto/x.jpg.
// URLs without an upload segment are returned unchanged.
type CloudinaryTransform struct{}

func (CloudinaryTransform) Transform(src string, v Variant) (string, error) {
	if _, err := url.ParseRequestURI(src); err != nil {
		return "", err
	}
	const marker = "/upload/"
	i := strings.Index(src, marker)
	if i < 0 {
		return src, nil
	}

	var parts []string
	if v.Width > 0 {
		parts = append(parts, "w_"+strconv.Itoa(v.Width))
	}
	if v.Height > 0 {
		parts = append(parts, "h_"+strconv.Itoa(v.Height))
	}
	if v.Fit != "" {
		parts = append(parts, "c_"+v.Fit)
	}
	if v.Quality > 0 {
		parts = append(parts, "q_"+strconv.Itoa(v.Quality))
	}
	if len(parts) == 0 {
		return src, nil
	}
	head := src[:i+len(marker)]
	return head + strings.Join(parts, ",") + "/" + src[i+len(marker):], nil
}

// TransformerFor maps a config name to a URLTransformer. Unknown names fall back to NoTransform.
func TransformerFor(name string) URLTransformer {
	switch strings.ToLower(name) {
	case "query":
		return QueryTransform{}
	case "cloudinary":
		return CloudinaryTransform{}
	default:
		return NoTransform{}
	}
}
