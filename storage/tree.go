package storage

import (
	"context"
	"path"
	"sort"
	"strings"
)

// Listing holds the immediate children of a directory prefix.
type Listing struct {
	// Dirs are child directory paths (dir/name), sorted.
	Dirs []string
	// Files are objects directly inside dir, sorted by path.
	Files []FileInfo
}

// Join joins slash-separated storage path elements.
func Join(elem ...string) string {
	return path.Join(elem...)
}

// ListDir lists the immediate child directories and files of dir. Object
// stores have no real directories, so they are derived from key prefixes.
func ListDir(ctx context.Context, s Storage, dir string) (Listing, error) {
	prefix := normalizeDir(dir)
	files, err := s.List(ctx, prefix)
	if err != nil {
		return Listing{}, err
	}

	var out Listing
	seen := make(map[string]bool)
	for _, f := range files {
		rel := strings.TrimPrefix(f.Path, prefix)
		if rel == "" {
			continue
		}
		if name, _, nested := strings.Cut(rel, "/"); nested {
			child := prefix + name
			if !seen[child] {
				seen[child] = true
				out.Dirs = append(out.Dirs, child)
			}
			continue
		}
		out.Files = append(out.Files, f)
	}

	sort.Strings(out.Dirs)
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Path < out.Files[j].Path })
	return out, nil
}

// Base returns the last element of a storage path.
func Base(p string) string {
	return path.Base(strings.TrimSuffix(p, "/"))
}

func normalizeDir(dir string) string {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	if dir == "" {
		return ""
	}
	return dir + "/"
}
