package services

import (
	"path/filepath"
	"strings"
)

const untitled = "untitled"

// unsafeNameChars are removed from remote names before they touch disk.
const unsafeNameChars = `<>:"/\|?*`

// vaultNames are OneDrive special folders that cannot be downloaded.
var vaultNames = map[string]bool{
	"personal vault": true,
	"vault":          true,
}

// SafeName strips characters that are invalid in file names on common
// platforms. A name with nothing left becomes "untitled".
func SafeName(name string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeNameChars, r) {
			return -1
		}
		return r
	}, name)
	clean = strings.TrimSpace(clean)
	if clean == "" || clean == "." || clean == ".." {
		return untitled
	}
	return clean
}

// ProcessedKey derives the processed text key from a path relative to
// the staging root: the extension is dropped and separators become "__".
func ProcessedKey(relPath string) string {
	base := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	base = strings.ReplaceAll(base, "\\", "__")
	return strings.ReplaceAll(base, "/", "__")
}

// localPath maps a remote relative folder and name into the staging root,
// sanitising every path segment.
func localPath(root, relDir, name string) string {
	parts := []string{root}
	for _, seg := range strings.Split(relDir, "/") {
		if seg == "" {
			continue
		}
		parts = append(parts, SafeName(seg))
	}
	parts = append(parts, SafeName(name))
	return filepath.Join(parts...)
}

// isVault reports whether an item or any of its parent folders is a vault.
func isVault(relDir, name string) bool {
	if vaultNames[strings.ToLower(strings.TrimSpace(name))] {
		return true
	}
	for _, seg := range strings.Split(relDir, "/") {
		if vaultNames[strings.ToLower(strings.TrimSpace(seg))] {
			return true
		}
	}
	return false
}

// remotePath joins a relative folder and name with forward slashes.
func remotePath(relDir, name string) string {
	if relDir == "" {
		return name
	}
	return relDir + "/" + name
}
