package ports

import "github.com/canopyhq/canopy/pkg/domain"

// SelectionSource supplies the currently selected page element, if any.
// How selection is produced (the DOM exploration UI) is out of scope; the
// core only consumes the reference when building nodes from a selection.
type SelectionSource interface {
	// Current returns the selected element reference and whether a
	// selection exists.
	Current() (domain.ElementRef, bool)
}

// SelectionFunc adapts a function to the SelectionSource interface.
type SelectionFunc func() (domain.ElementRef, bool)

// Current implements SelectionSource.
func (f SelectionFunc) Current() (domain.ElementRef, bool) { return f() }
