package fs

import "strings"

// DefaultExtensions are the document types recognized out of the box.
var DefaultExtensions = []string{".pdf", ".epub"}

// ExtensionFilter decides which files are shown and searched. Directories
// always pass.
type ExtensionFilter struct {
	exts []string
}

// NewExtensionFilter normalizes extensions to lowercase with a leading dot.
// Blank entries are dropped.
func NewExtensionFilter(exts ...string) ExtensionFilter {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return ExtensionFilter{exts: out}
}

// Extensions returns the normalized extension list.
func (f ExtensionFilter) Extensions() []string {
	return append([]string(nil), f.exts...)
}

// Supports reports whether a file name ends with a recognized extension,
// ignoring case.
func (f ExtensionFilter) Supports(name string) bool {
	lower := strings.ToLower(name)
	for _, e := range f.exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

// Keep reports whether n belongs in a listing. Unnamed files are dropped.
func (f ExtensionFilter) Keep(n Node) bool {
	if n.IsDir() {
		return true
	}
	name, ok := n.Name()
	return ok && f.Supports(name)
}
