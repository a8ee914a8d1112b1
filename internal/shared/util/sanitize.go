package util

import (
	"path/filepath"
	"strings"
)

// SplitFileName returns the stem and the lowercase extension without the dot.
// Directory components sent by some browsers are dropped.
func SplitFileName(name string) (stem, ext string) {
	base := strings.TrimSpace(name)
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	dotExt := filepath.Ext(base)
	stem = strings.TrimSpace(strings.TrimSuffix(base, dotExt))
	ext = strings.ToLower(strings.TrimPrefix(dotExt, "."))
	return stem, ext
}
