package check

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/virdant-lang/virdant/internal/ast"
)

// parseWordLit decodes a lexed INT literal's text, which is either a
// bare decimal ("42") or the sized form "NwK" (e.g. "3w8" for the
// value 3 at width 8). Digit-group underscores are stripped first.
func parseWordLit(lit string) (value uint64, width int, sized bool, err error) {
	lit = strings.ReplaceAll(lit, "_", "")
	if idx := strings.IndexByte(lit, 'w'); idx >= 0 {
		value, err = strconv.ParseUint(lit[:idx], 10, 64)
		if err != nil {
			return 0, 0, false, fmt.Errorf("invalid word literal %q", lit)
		}
		w, werr := strconv.Atoi(lit[idx+1:])
		if werr != nil {
			return 0, 0, false, fmt.Errorf("invalid width in word literal %q", lit)
		}
		return value, w, true, nil
	}
	value, err = strconv.ParseUint(lit, 10, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid word literal %q", lit)
	}
	return value, 0, false, nil
}

// fitsInWidth reports whether value can be represented in an unsigned
// word of the given width.
func fitsInWidth(value uint64, width int) bool {
	if width <= 0 {
		return value == 0
	}
	if width >= 64 {
		return true
	}
	max := (uint64(1) << uint(width)) - 1
	return value <= max
}

// evalIndexLit evaluates an index/range bound, which must be a bare
// unsized word literal: this grammar has no constant-folding, so bit
// positions are restricted to literal digits written directly in the
// index expression.
func evalIndexLit(node *ast.Node) (int, error) {
	if node.Kind() != ast.KExprWordLit {
		return 0, fmt.Errorf("index must be a literal constant")
	}
	value, _, sized, err := parseWordLit(node.AsStr())
	if err != nil {
		return 0, err
	}
	if sized {
		return 0, fmt.Errorf("index literal must be unsized")
	}
	return int(value), nil
}
