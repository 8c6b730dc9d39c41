package pathutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/inferctl/internal/pathutil"
)

func TestJoinPath(t *testing.T) {
	tests := map[string]struct {
		parts   []string
		expPath string
	}{
		"No segments should return the root.": {
			parts:   nil,
			expPath: "/",
		},
		"Only empty segments should return the root.": {
			parts:   []string{"", ""},
			expPath: "/",
		},
		"A root first segment should make the result rooted.": {
			parts:   []string{"/", "data", "models"},
			expPath: "/data/models",
		},
		"Relative segments should be joined with single slashes.": {
			parts:   []string{"data", "models"},
			expPath: "data/models",
		},
		"Double slashes inside a segment should collapse.": {
			parts:   []string{"a//b"},
			expPath: "a/b",
		},
		"Slashes between segments should collapse.": {
			parts:   []string{"/data/", "/models/", "x"},
			expPath: "/data/models/x",
		},
		"Empty segments in the middle should be ignored.": {
			parts:   []string{"/", "", "data", ""},
			expPath: "/data",
		},
		"Trailing slashes should be removed.": {
			parts:   []string{"data/"},
			expPath: "data",
		},
		"Joining only roots should return the root.": {
			parts:   []string{"/", "/"},
			expPath: "/",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expPath, pathutil.JoinPath(test.parts...))
		})
	}
}

func TestJoinPathAssociative(t *testing.T) {
	tests := map[string]struct {
		a, b, c string
	}{
		"Rooted.":               {a: "/", b: "data", c: "models"},
		"Relative.":             {a: "a", b: "b", c: "c"},
		"With slashes.":         {a: "/a/", b: "/b//", c: "c/"},
		"Empty middle segment.": {a: "/x", b: "", c: "y"},
		"Nested segments.":      {a: "a/b", b: "c/d", c: "e"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t,
				pathutil.JoinPath(test.a, test.b, test.c),
				pathutil.JoinPath(pathutil.JoinPath(test.a, test.b), test.c),
			)
		})
	}
}

func TestIsRootPath(t *testing.T) {
	tests := map[string]struct {
		path   string
		expRes bool
	}{
		"Slash should be root.":           {path: "/", expRes: true},
		"Empty should be root.":           {path: "", expRes: true},
		"A name should not be root.":      {path: "x", expRes: false},
		"A rooted path should not root.":  {path: "/x", expRes: false},
		"Double slash should not be root": {path: "//", expRes: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expRes, pathutil.IsRootPath(test.path))
		})
	}
}

func TestNormalizeRelativePath(t *testing.T) {
	tests := map[string]struct {
		path    string
		expPath string
	}{
		"Empty should stay empty.":                {path: "", expPath: ""},
		"Root should be empty.":                   {path: "/", expPath: ""},
		"Leading and trailing should be stripped": {path: "/a/b/", expPath: "a/b"},
		"Internal repeats should collapse.":       {path: "a//b///c", expPath: "a/b/c"},
		"Already normalized should not change.":   {path: "a/b", expPath: "a/b"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expPath, pathutil.NormalizeRelativePath(test.path))
		})
	}
}

func TestToRelativePath(t *testing.T) {
	tests := map[string]struct {
		absolute string
		home     string
		expRel   string
		expOK    bool
	}{
		"A nested path should return the suffix.": {
			absolute: "/home/u/data/x",
			home:     "/home/u/data",
			expRel:   "x",
			expOK:    true,
		},
		"A deeply nested path should return the full suffix.": {
			absolute: "/home/u/data/x/y/z.txt",
			home:     "/home/u/data",
			expRel:   "x/y/z.txt",
			expOK:    true,
		},
		"The home itself should return the root.": {
			absolute: "/home/u/data",
			home:     "/home/u/data",
			expRel:   "/",
			expOK:    true,
		},
		"The home with a trailing slash should return the root.": {
			absolute: "/home/u/data/",
			home:     "/home/u/data",
			expRel:   "/",
			expOK:    true,
		},
		"A home with a trailing slash should still match.": {
			absolute: "/home/u/data/x",
			home:     "/home/u/data/",
			expRel:   "x",
			expOK:    true,
		},
		"Repeated slashes after the home should be collapsed.": {
			absolute: "/home/u/data//x//y",
			home:     "/home/u/data",
			expRel:   "x/y",
			expOK:    true,
		},
		"A path outside home should be rejected.": {
			absolute: "/other",
			home:     "/home/u/data",
			expOK:    false,
		},
		"A sibling sharing the home prefix should be rejected.": {
			absolute: "/home/u/database",
			home:     "/home/u/data",
			expOK:    false,
		},
		"A missing absolute path should return the root.": {
			absolute: "",
			home:     "/home/u/data",
			expRel:   "/",
			expOK:    true,
		},
		"A missing home should return the root.": {
			absolute: "/home/u/data/x",
			home:     "",
			expRel:   "/",
			expOK:    true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			rel, ok := pathutil.ToRelativePath(test.absolute, test.home)

			assert.Equal(t, test.expOK, ok)
			assert.Equal(t, test.expRel, rel)
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := map[string]struct {
		path    string
		expPath string
	}{
		"Root parent should be root.":          {path: "/", expPath: "/"},
		"Empty parent should be root.":         {path: "", expPath: "/"},
		"First level parent should be root.":   {path: "/a", expPath: "/"},
		"Nested parent should be the dir.":     {path: "/a/b/c", expPath: "/a/b"},
		"Trailing slashes should be ignored.":  {path: "/a/b/", expPath: "/a"},
		"Relative single segment should root.": {path: "a", expPath: "/"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expPath, pathutil.ParentPath(test.path))
		})
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]struct {
		path   string
		expExt string
	}{
		"A regular file should return its extension.": {path: "/a/b.CSV", expExt: "csv"},
		"Multiple dots should use the last one.":      {path: "x.tar.gz", expExt: "gz"},
		"No extension should return empty.":           {path: "/a/README", expExt: ""},
		"Dot files should not have an extension.":     {path: ".env", expExt: ""},
		"Trailing dot should not have an extension.":  {path: "a.", expExt: ""},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expExt, pathutil.Extension(test.path))
		})
	}
}
