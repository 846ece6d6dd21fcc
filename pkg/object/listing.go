package object

import (
	"fmt"
	"io"
	"sort"
)

// FormatTree writes a human-readable listing of tr, one entry per line in
// name order. With nameOnly each line is just the name; otherwise it is
//
//	<mode> <type> <hash>\t<name>
//
// with the mode zero-padded to six digits the way git prints it.
func FormatTree(w io.Writer, tr *Tree, nameOnly bool) error {
	entries := make([]TreeEntry, len(tr.Entries))
	copy(entries, tr.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	for _, e := range entries {
		var err error
		if nameOnly {
			_, err = fmt.Fprintf(w, "%s\n", e.Name)
		} else {
			_, err = fmt.Fprintf(w, "%06o %s %s\t%s\n", uint32(e.Mode), e.Mode.Type(), e.Hash, e.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
