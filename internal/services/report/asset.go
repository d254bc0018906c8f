package report

import (
	"strings"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
)

// MediaAsset describes the picked media. Kind and size are detected once at
// intake and never change; the asset belongs to a single submission run.
type MediaAsset struct {
	URI       string
	Kind      enums.MediaKind
	MimeType  string
	SizeBytes int64
}

var videoExtensions = map[string]bool{
	"mp4": true, "mov": true, "m4v": true, "3gp": true, "mkv": true, "webm": true,
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "heic": true, "bmp": true,
}

// DetectKind classifies an asset from its content-type hint, falling back
// to the URI's extension. Anything unrecognized counts as an image.
func DetectKind(mimeType, uri string) enums.MediaKind {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if strings.HasPrefix(mime, "video/") {
		return enums.MediaKindVideo
	}
	if strings.HasPrefix(mime, "image/") {
		return enums.MediaKindImage
	}
	if videoExtensions[uriExtension(uri)] {
		return enums.MediaKindVideo
	}
	return enums.MediaKindImage
}

// fileExtension derives the remote path extension from the asset's URI,
// with the query string stripped and the result lower-cased. Unknown or
// missing extensions fall back to the kind's default.
func fileExtension(uri string, kind enums.MediaKind) string {
	if ext := uriExtension(uri); videoExtensions[ext] || imageExtensions[ext] {
		return ext
	}
	if kind == enums.MediaKindVideo {
		return "mp4"
	}
	return "jpg"
}

func defaultContentType(kind enums.MediaKind) string {
	if kind == enums.MediaKindVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}

func uriExtension(uri string) string {
	clean := uri
	if idx := strings.IndexByte(clean, '?'); idx >= 0 {
		clean = clean[:idx]
	}
	idx := strings.LastIndexByte(clean, '.')
	if idx < 0 || idx == len(clean)-1 {
		return ""
	}
	ext := strings.ToLower(clean[idx+1:])
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
