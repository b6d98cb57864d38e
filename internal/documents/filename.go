package documents

import (
	"path"
	"strings"
)

// Filename returns the base name of name with any directory part removed.
// Both slash and backslash separators are honored.
func Filename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Extension returns the suffix after the last dot without the dot. Names
// without a dot and dotfiles such as ".env" have no extension.
func Extension(name string) string {
	base := Filename(name)
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return ""
	}
	return base[i+1:]
}

// DeriveTitle returns the base name with its final suffix removed:
// "archive.tar.gz" becomes "archive.tar".
func DeriveTitle(name string) string {
	base := Filename(name)
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return base
	}
	return base[:i]
}

func titleOrDerived(title string, first Upload) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if t := strings.TrimSpace(DeriveTitle(first.Filename)); t != "" {
		return t
	}
	return Filename(first.Filename)
}

func storageKey(fileID string, filename string) string {
	return "files/" + fileID + "/" + sanitizeFilename(filename)
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	out := replacer.Replace(Filename(name))
	if out == "" || out == ".." {
		return "file"
	}
	return out
}
