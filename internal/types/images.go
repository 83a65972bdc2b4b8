package types

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ImageSourceKind tags the three shapes an image reference arrives in:
// a bare media-library id, a direct URL, or an object wrapping either.
type ImageSourceKind int

const (
	ImageByID ImageSourceKind = iota
	ImageByURL
	ImageByObject
)

// ImageSource is the normalized form of a caller-supplied image field.
type ImageSource struct {
	Kind ImageSourceKind
	ID   int
	URL  string
}

// ResolveImageRef normalizes the dynamic image field. Accepted inputs:
// a numeric string or number (media id), an http(s) URL string, or a
// map carrying "id" or "url".
func ResolveImageRef(raw any) (ImageSource, error) {
	switch v := raw.(type) {
	case string:
		return resolveImageString(v)
	case float64:
		return ImageSource{Kind: ImageByID, ID: int(v)}, nil
	case int:
		return ImageSource{Kind: ImageByID, ID: v}, nil
	case map[string]any:
		if id, ok := v["id"]; ok {
			inner, err := ResolveImageRef(id)
			if err != nil {
				return ImageSource{}, err
			}
			inner.Kind = ImageByObject
			return inner, nil
		}
		if u, ok := v["url"].(string); ok && strings.TrimSpace(u) != "" {
			return ImageSource{Kind: ImageByObject, URL: strings.TrimSpace(u)}, nil
		}
		return ImageSource{}, fmt.Errorf("image object missing id and url")
	default:
		return ImageSource{}, fmt.Errorf("unsupported image reference type %T", raw)
	}
}

func resolveImageString(s string) (ImageSource, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ImageSource{}, fmt.Errorf("empty image reference")
	}
	if id, err := strconv.Atoi(s); err == nil {
		return ImageSource{Kind: ImageByID, ID: id}, nil
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return ImageSource{Kind: ImageByURL, URL: s}, nil
	}
	return ImageSource{}, fmt.Errorf("image reference %q is neither id nor url", s)
}

// ExtractPostID parses the content-backend id out of a stored document
// reference URL. The id only exists embedded in the edit URL's "post"
// query parameter; it is never stored as its own column.
func ExtractPostID(editURL string) (int, error) {
	u, err := url.Parse(strings.TrimSpace(editURL))
	if err != nil {
		return 0, fmt.Errorf("parse post url: %w", err)
	}
	raw := u.Query().Get("post")
	if raw == "" {
		return 0, fmt.Errorf("post url %q has no post parameter", editURL)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("post url %q has invalid post id %q", editURL, raw)
	}
	return id, nil
}
