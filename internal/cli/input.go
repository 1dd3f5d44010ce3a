package cli

import (
	"fmt"
	"io"

	"golang.org/x/term"
)

// readPassword заменяется в тестах, чтобы не трогать терминал.
var readPassword = term.ReadPassword

// promptPassword читает пароль без эха.
func promptPassword(fd int, w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
