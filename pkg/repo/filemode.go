package repo

import (
	"os"

	"github.com/odvcencio/gitlite/pkg/object"
)

// modeFromFileInfo maps a filesystem entry to a tree mode. ok is false for
// entries that cannot be stored (sockets, devices, pipes).
func modeFromFileInfo(info os.FileInfo) (mode object.Mode, ok bool) {
	m := info.Mode()
	switch {
	case m.IsDir():
		return object.ModeDir, true
	case m&os.ModeSymlink != 0:
		return object.ModeSymlink, true
	case !m.IsRegular():
		return 0, false
	case m&0o111 != 0:
		return object.ModeExecutable, true
	default:
		return object.ModeFile, true
	}
}

func filePermFromMode(mode object.Mode) os.FileMode {
	if mode == object.ModeExecutable {
		return 0o755
	}
	return 0o644
}
