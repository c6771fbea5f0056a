package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

var depLineRe = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*=`)

// AddDependency inserts `name = "req"` into the [dependencies] table of a
// manifest's source text, creating the table if absent. It edits the
// smallest possible line range so that adding then removing a dependency
// round-trips to a byte-equal manifest modulo the touched lines (spec.md
// §8's round-trip law), rather than re-serialising the whole document the
// way a full TOML encoder would.
func AddDependency(src []byte, name, req string) ([]byte, error) {
	trailingNewline := len(src) > 0 && src[len(src)-1] == '\n'
	lines := strings.Split(strings.TrimSuffix(string(src), "\n"), "\n")
	entry := fmt.Sprintf("%s = %q", name, req)

	start, end, found := findTable(lines, "dependencies")
	if !found {
		// No [dependencies] table yet: append one at the end of the file.
		lines = append(lines, "", "[dependencies]", entry)
		return renderLines(lines, trailingNewline), nil
	}

	for i := start; i < end; i++ {
		if m := depLineRe.FindStringSubmatch(lines[i]); m != nil && m[1] == name {
			lines[i] = entry
			return renderLines(lines, trailingNewline), nil
		}
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:end]...)
	out = append(out, entry)
	out = append(out, lines[end:]...)
	return renderLines(out, trailingNewline), nil
}

// RemoveDependency deletes name's line from the [dependencies] table. It
// is a no-op (returns src unchanged) if the table or the entry is absent.
// If removing the entry leaves the table empty, the header (and the blank
// separator line AddDependency would have introduced before it) is dropped
// too, so that adding then removing a dependency round-trips to a
// byte-equal manifest (spec.md §8).
func RemoveDependency(src []byte, name string) ([]byte, error) {
	trailingNewline := len(src) > 0 && src[len(src)-1] == '\n'
	lines := strings.Split(strings.TrimSuffix(string(src), "\n"), "\n")
	start, end, found := findTable(lines, "dependencies")
	if !found {
		return src, nil
	}

	removedIdx := -1
	for i := start; i < end; i++ {
		if m := depLineRe.FindStringSubmatch(lines[i]); m != nil && m[1] == name {
			removedIdx = i
			break
		}
	}
	if removedIdx == -1 {
		return src, nil
	}
	lines = append(lines[:removedIdx], lines[removedIdx+1:]...)
	end--

	if end == start {
		headerIdx := start - 1
		lines = append(lines[:headerIdx], lines[headerIdx+1:]...)
		if headerIdx > 0 && headerIdx-1 < len(lines) && strings.TrimSpace(lines[headerIdx-1]) == "" {
			lines = append(lines[:headerIdx-1], lines[headerIdx:]...)
		}
	}
	return renderLines(lines, trailingNewline), nil
}

func renderLines(lines []string, trailingNewline bool) []byte {
	out := strings.Join(lines, "\n")
	if trailingNewline {
		out += "\n"
	}
	return []byte(out)
}

// findTable locates the [name] table's body range [start, end) within
// lines (exclusive of the header line itself), returning found=false if no
// such table header exists.
func findTable(lines []string, name string) (start, end int, found bool) {
	header := "[" + name + "]"
	for i, l := range lines {
		if strings.TrimSpace(l) == header {
			start = i + 1
			for end = start; end < len(lines); end++ {
				t := strings.TrimSpace(lines[end])
				if strings.HasPrefix(t, "[") {
					break
				}
			}
			return start, end, true
		}
	}
	return 0, 0, false
}
