package readable

import "strings"

// divider separates the document title from the source details.
const divider = "-----------------------------------------------------------------"

// indentUnit is the fixed indentation width for one nesting level.
const indentUnit = 4

// indent prefixes every non-empty line of block with one indentation
// unit, the first line included. Empty lines stay empty so nested blocks
// never accumulate trailing whitespace.
func indent(block string) string {
	if block == "" {
		return ""
	}
	pad := strings.Repeat(" ", indentUnit)
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

// normalizeNewlines collapses \r\n and bare \r to \n.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
