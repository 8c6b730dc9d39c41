package pathutil

import (
	"regexp"
	"strings"
)

// Root is the only spelling of the root path producers may return.
const Root = "/"

var multiSlashRegexp = regexp.MustCompile(`/{2,}`)

// JoinPath joins path segments ignoring empty ones. With no meaningful
// segments it returns Root. The result is rooted when the first meaningful
// segment starts with a slash. Repeated slashes are collapsed and trailing
// slashes removed (except for Root).
func JoinPath(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		segments = append(segments, p)
	}
	if len(segments) == 0 {
		return Root
	}

	rooted := strings.HasPrefix(segments[0], "/")
	joined := collapseSlashes(strings.Join(segments, "/"))
	joined = strings.TrimRight(joined, "/")

	if rooted && !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	if joined == "" {
		return Root
	}

	return joined
}

// IsRootPath returns true for any of the root spellings ("/" or empty).
func IsRootPath(p string) bool {
	return p == Root || p == ""
}

// NormalizeRelativePath strips leading and trailing slashes and collapses
// internal repeated ones.
func NormalizeRelativePath(p string) string {
	if p == "" {
		return ""
	}
	return strings.Trim(collapseSlashes(p), "/")
}

// ToRelativePath converts an absolute path into a path relative to homeDir.
//
// It returns Root when absolute is the home itself, the suffix after the home
// when absolute is nested under it, and ok=false when absolute is outside the
// home. A missing absolute or homeDir returns Root with ok=true: callers treat
// that as the root, not as a rejection.
func ToRelativePath(absolute, homeDir string) (rel string, ok bool) {
	if absolute == "" || homeDir == "" {
		return Root, true
	}

	base := strings.TrimRight(homeDir, "/")
	if strings.TrimRight(absolute, "/") == base {
		return Root, true
	}

	prefix := base + "/"
	if !strings.HasPrefix(absolute, prefix) {
		return "", false
	}

	rel = NormalizeRelativePath(strings.TrimPrefix(absolute, prefix))
	if rel == "" {
		return Root, true
	}

	return rel, true
}

// ParentPath returns the parent of p, the parent of the root is the root.
func ParentPath(p string) string {
	if IsRootPath(p) {
		return Root
	}

	p = strings.TrimRight(collapseSlashes(p), "/")
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return Root
	}

	return p[:idx]
}

// BaseName returns the last segment of p, empty for the root.
func BaseName(p string) string {
	p = NormalizeRelativePath(p)
	if p == "" {
		return ""
	}
	return p[strings.LastIndex(p, "/")+1:]
}

// Extension returns the lowercase extension of the last segment of p without the dot.
func Extension(p string) string {
	name := BaseName(p)
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

func collapseSlashes(p string) string {
	return multiSlashRegexp.ReplaceAllString(p, "/")
}
