package game

import (
	"errors"

	"github.com/atotto/clipboard"
)

var (
	errNothingToCopy = errors.New("nothing selected to copy")
	errNoClipboard   = errors.New("clipboard unsupported on this system")
)

// copyText writes to the system clipboard. Swapped in tests.
var copyText = func(text string) error {
	if clipboard.Unsupported {
		return errNoClipboard
	}
	return clipboard.WriteAll(text)
}

// copyTooltip puts the selected entity's tooltip on the system clipboard.
func copyTooltip(text string) error {
	if text == "" {
		return errNothingToCopy
	}
	return copyText(text)
}
