package config

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Exitf prints a fatal command error to stderr and exits with status 1.
func Exitf(format string, args ...any) {
	exitf(os.Stderr, os.Exit, format, args...)
}

func exitf(w io.Writer, exit func(int), format string, args ...any) {
	message := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintln(w, message)
	exit(1)
}
