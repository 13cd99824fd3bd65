package format

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const DefaultDiffContext = 3

// Diff returns a unified diff between two texts, or "" when they are equal.
// A context of zero or less uses DefaultDiffContext.
func Diff(aName, bName, a, b string, context int) (string, error) {
	if a == b {
		return "", nil
	}
	if context <= 0 {
		context = DefaultDiffContext
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLinesKeepNL(a),
		B:        splitLinesKeepNL(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  context,
	})
}

func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
