package ui

import "strings"

const (
	reset       = "\033[0m"
	bold        = "\033[1m"
	minerFlame  = "\033[38;5;208m"
	honeyOrange = "\033[38;5;214m"
	beeYellow   = "\033[38;5;226m"
	mint        = "\033[38;5;121m"
	cobalt      = "\033[38;5;33m"
)

// Banner renders a colored syscallminer wordmark.
func Banner() string {
	var b strings.Builder

	minerLetters := [][]string{
		{"███╗   ███╗", "████╗ ████║", "██╔████╔██║", "██║╚██╔╝██║", "██║ ╚═╝ ██║", "╚═╝     ╚═╝"},
		{"██╗", "██║", "██║", "██║", "██║", "╚═╝"},
		{"███╗   ██╗", "████╗  ██║", "██╔██╗ ██║", "██║╚██╗██║", "██║ ╚████║", "╚═╝  ╚═══╝"},
		{"███████╗", "██╔════╝", "█████╗  ", "██╔══╝  ", "███████╗", "╚══════╝"},
		{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔══██╗", "██║  ██║", "╚═╝  ╚═╝"},
	}
	minerGradient := []string{minerFlame, honeyOrange, beeYellow, mint, cobalt}
	minerRows := make([]string, len(minerLetters[0]))
	for i, letter := range minerLetters {
		color := minerGradient[i%len(minerGradient)]
		for row := 0; row < len(letter); row++ {
			minerRows[row] += color + letter[row] + "  "
		}
	}
	for _, line := range minerRows {
		b.WriteString(bold + line + reset + "\n")
	}

	b.WriteString("\n")
	b.WriteString(bold + minerFlame + "syscallminer" + reset + "  •  system call bottleneck lens\n\n")

	return b.String()
}
