package metadata

import "strings"

// PlaceholderImage is served when a subject has no artwork.
const PlaceholderImage = "/placeholder.svg"

// Image sizes accepted by ResolveImageURL.
const (
	SizeW300     = "w300"
	SizeW500     = "w500"
	SizeW780     = "w780"
	SizeW1280    = "w1280"
	SizeOriginal = "original"
)

var imageSizes = map[string]bool{
	SizeW300:     true,
	SizeW500:     true,
	SizeW780:     true,
	SizeW1280:    true,
	SizeOriginal: true,
}

// ResolveImageURL joins an artwork path with the image CDN base. Unknown sizes
// fall back to w500; an empty path yields the placeholder.
func ResolveImageURL(base, path, size string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PlaceholderImage
	}
	if !imageSizes[size] {
		size = SizeW500
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + "/" + size + path
}

// derefPath turns an optional provider path into a plain string.
func derefPath(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
