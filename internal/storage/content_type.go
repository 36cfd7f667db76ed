package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// audioTypes covers the formats sample packs ship in. The mime package's
// tables vary by OS and miss several of these.
var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".flac": "audio/flac",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".mid":  "audio/midi",
	".midi": "audio/midi",
	".zip":  "application/zip",
}

// ContentTypeFor returns the MIME type to serve key with, falling back to
// application/octet-stream for unknown extensions.
func ContentTypeFor(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// contentDisposition builds an attachment header value for key.
func contentDisposition(key string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": downloadName(key)})
}
