package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput returns the prompt from args or -F. An empty result means the
// default prompt is used.
func readInput(args []string, inputFile string, stdin io.Reader) (string, error) {
	if inputFile != "" && len(args) > 0 {
		return "", fmt.Errorf("prompt args and -F are mutually exclusive")
	}
	if inputFile == "" {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}
	if inputFile == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return trimTrailingNewline(string(data)), nil
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return trimTrailingNewline(string(data)), nil
}

func trimTrailingNewline(value string) string {
	return strings.TrimRight(value, "\r\n")
}
