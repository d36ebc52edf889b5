// Package selector derives CSS selector strings from element references.
//
// Generation is deterministic and pure: the same reference always yields
// the same selector, and nothing outside the reference is consulted.
package selector

import (
	"fmt"
	"strings"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Generate derives a CSS selector for the referenced element.
//
// Priority order:
//  1. A non-empty id short-circuits to "#<id>"; ids are assumed
//     page-unique, so no further disambiguation is attempted.
//  2. Otherwise the lower-cased tag name is the base.
//  3. A non-empty class string is split on single spaces and every token is
//     appended as a "."-prefixed suffix in order. The split is deliberately
//     naive: empty tokens from doubled spaces are kept, matching the
//     selectors the editor has always produced for such markup.
//  4. Live references with parent context get a ":nth-child(n)" suffix.
//     Descriptors are context-free and never receive one, even when they
//     carry parent information.
//
// A reference with neither id, class, nor parent context yields the bare
// tag name.
func Generate(ref domain.ElementRef) string {
	if ref.ID != "" {
		return "#" + ref.ID
	}

	var sb strings.Builder
	sb.WriteString(strings.ToLower(ref.Tag))

	if ref.Class != "" {
		for _, cls := range strings.Split(ref.Class, " ") {
			sb.WriteString(".")
			sb.WriteString(cls)
		}
	}

	if ref.Kind == domain.ElementLive && ref.NthOfParent > 0 {
		fmt.Fprintf(&sb, ":nth-child(%d)", ref.NthOfParent)
	}

	return sb.String()
}

// ClassString coerces a raw class attribute value to its string form.
//
// Live pages can report class attributes that are not plain strings, e.g.
// SVG elements expose an animated value object with a "baseVal" field.
// Absence of a usable string form is treated as no class at all.
func ClassString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case map[string]any:
		if base, ok := val["baseVal"].(string); ok {
			return base
		}
		return ""
	default:
		return ""
	}
}
