// Package frameio loads tabular data sources from disk, confining
// every path to a configured data root so a model-suggested or
// mistyped path cannot reach outside it.
package frameio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PathError is a machine-readable error body describing a rejected path.
type PathError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string.
func (e PathError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

var (
	rootOnce    sync.Once
	absDataRoot string
	initRootErr error
)

func initRoot() {
	absDataRoot, initRootErr = resolveDataRoot(os.Getenv("FA_DATA_ROOT"))
}

// dataRoot returns the cached absolute data root, initialising it once
// on first use. Defaults to the working directory when FA_DATA_ROOT is
// unset.
func dataRoot() (string, error) {
	rootOnce.Do(initRoot)
	return absDataRoot, initRootErr
}

func resolveDataRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs(dataRoot): %w", err)
	}
	// Resolve symlinks where possible so boundary checks are reliable.
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}
	return root, nil
}

// validatePath resolves relPath against absRoot and returns an absolute
// path inside the root. It rejects absolute inputs, parent traversal,
// and symlink escapes.
func validatePath(absRoot, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", PathError{Code: "ERR_PATH_OUTSIDE_ROOT", Message: "absolute paths are not allowed"}
	}

	cleaned := filepath.Clean(relPath)
	if cleaned == "" {
		cleaned = "."
	}
	candidate := filepath.Join(absRoot, cleaned)

	// Best-effort symlink resolution: the whole candidate if it exists,
	// otherwise the deepest existing ancestor rejoined with the leaf.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else {
		parent := filepath.Dir(candidate)
		if resolvedParent, err2 := filepath.EvalSymlinks(parent); err2 == nil {
			candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
		}
	}

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", PathError{Code: "ERR_PATH_OUTSIDE_ROOT", Message: "requested path resolves outside the data root"}
	}
	return candidate, nil
}
