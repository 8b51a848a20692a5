// Package linker emits link instructions for the host build.
//
// Both acquisition paths converge on the same small protocol, printed
// one directive per line on stdout:
//
//	link-lib=dylib=tensorflow
//	link-search=native=/path/to/libs
//
// The linking stage of the host build scrapes these lines; everything
// else this tool prints goes to stderr.
package linker

import (
	"fmt"
	"io"
)

// Directives is the set of link instructions produced by an
// acquisition path.
type Directives struct {
	// Libs are dynamic-link library names, emitted in order.
	Libs []string
	// SearchPath is the directory containing the installed artifacts.
	SearchPath string
}

// Emit writes the directives to w, one per line.
func (d Directives) Emit(w io.Writer) error {
	for _, lib := range d.Libs {
		if _, err := fmt.Fprintf(w, "link-lib=dylib=%s\n", lib); err != nil {
			return err
		}
	}
	if d.SearchPath != "" {
		if _, err := fmt.Fprintf(w, "link-search=native=%s\n", d.SearchPath); err != nil {
			return err
		}
	}
	return nil
}
