// Package clipboard is the write-only "copy text to the system clipboard"
// capability.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Writer copies text somewhere the user can paste from.
type Writer interface {
	Copy(text string) error
}

// System writes to the OS clipboard (xclip/xsel/wl-copy on Linux,
// pbcopy on macOS, the Win32 API on Windows).
type System struct{}

func (System) Copy(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

// Available reports whether the host has a usable clipboard backend.
func Available() bool {
	return !clipboard.Unsupported
}
