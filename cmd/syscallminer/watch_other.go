//go:build !linux

package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// enableSingleView switches to the alternate screen. Echo suppression needs termios
// and is only done on Linux.
func enableSingleView(_ *zap.Logger) func() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func() {}
	}
	fmt.Print("\033[?1049h\033[?25l")
	return func() {
		fmt.Print("\033[?25h\033[?1049l")
	}
}
