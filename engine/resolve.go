package engine

import (
	"os"
	"path/filepath"
)

// SourceResolver maps a bare filename reported by the debugger to a
// readable absolute path (§4.2). Search directories are supplied by the
// caller; resolving them from a debugger init file is an external
// collaborator's job, not this component's.
type SourceResolver struct {
	searchDirs []string
	cache      map[string]string // bareName -> resolved path; absent key = not yet tried
	unresolved map[string]bool   // bareName -> permanently unresolved
}

// NewSourceResolver builds a resolver over searchDirs, consulted in order.
func NewSourceResolver(searchDirs []string) *SourceResolver {
	return &SourceResolver{
		searchDirs: searchDirs,
		cache:      make(map[string]string),
		unresolved: make(map[string]bool),
	}
}

// Resolve returns the resolved path for bareName, or ok=false if no
// readable file could be found. Once a name is marked unresolved it is
// never reconsidered.
func (r *SourceResolver) Resolve(bareName string) (path string, ok bool) {
	if r.unresolved[bareName] {
		return "", false
	}
	if p, hit := r.cache[bareName]; hit {
		return p, true
	}

	if isReadable(bareName) {
		r.cache[bareName] = bareName
		return bareName, true
	}

	for _, dir := range r.searchDirs {
		candidate := filepath.Join(dir, bareName)
		if isReadable(candidate) {
			r.cache[bareName] = candidate
			return candidate, true
		}
	}

	r.unresolved[bareName] = true
	return "", false
}

func isReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
