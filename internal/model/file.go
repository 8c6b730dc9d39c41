package model

import (
	"strings"
	"time"
)

// FileKind is the file API family a file belongs to.
type FileKind string

const (
	FileKindImage FileKind = "image"
	FileKindText  FileKind = "text"
	FileKindAudio FileKind = "audio"
)

var kindByExtension = map[string]FileKind{
	"png":  FileKindImage,
	"jpg":  FileKindImage,
	"jpeg": FileKindImage,
	"gif":  FileKindImage,
	"webp": FileKindImage,
	"bmp":  FileKindImage,

	"txt":   FileKindText,
	"csv":   FileKindText,
	"json":  FileKindText,
	"jsonl": FileKindText,
	"md":    FileKindText,

	"wav":  FileKindAudio,
	"mp3":  FileKindAudio,
	"flac": FileKindAudio,
	"ogg":  FileKindAudio,
	"m4a":  FileKindAudio,
}

// FileKindForExtension returns the kind for an extension (without the dot, any case).
func FileKindForExtension(ext string) (FileKind, bool) {
	k, ok := kindByExtension[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return k, ok
}

// FileEntry is a single directory listing entry.
type FileEntry struct {
	Name       string
	Path       string
	IsDir      bool
	SizeBytes  int64
	ModifiedAt time.Time
}
