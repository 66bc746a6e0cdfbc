package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	reader = bufio.NewReader(os.Stdin)
	writer = io.Writer(os.Stdout)
	stdin  = int(os.Stdin.Fd())
)

// SetIO replaces the prompt input and output. Password input is only hidden
// when reading from a terminal.
func SetIO(in io.Reader, out io.Writer) {
	reader = bufio.NewReader(in)
	writer = out
	stdin = -1
	if f, ok := in.(*os.File); ok {
		stdin = int(f.Fd())
	}
}

func readLine() (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimRight(input, "\r\n"), nil
}

// PromptString prompts user for a string input
func PromptString(label string) (string, error) {
	fmt.Fprint(writer, label)
	input, err := readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// PromptRequired repeats the prompt until a non-empty answer is given
func PromptRequired(label string) (string, error) {
	for {
		s, err := PromptString(label)
		if err != nil || s != "" {
			return s, err
		}
	}
}

// PromptPassword prompts user for a password (hidden input)
func PromptPassword(label string) (string, error) {
	fmt.Fprint(writer, label)

	if stdin < 0 || !term.IsTerminal(stdin) {
		return readLine()
	}

	bytepw, err := term.ReadPassword(stdin)
	if err != nil {
		return "", err
	}

	fmt.Fprintln(writer) // New line after password input

	return string(bytepw), nil
}

// PromptConfirm prompts user for yes/no confirmation
func PromptConfirm(label string) (bool, error) {
	fmt.Fprint(writer, label+" (y/n) ")
	input, err := readLine()
	if err != nil {
		return false, err
	}

	response := strings.TrimSpace(strings.ToLower(input))
	return response == "y" || response == "yes", nil
}

// PromptSelect prompts user to select from options
func PromptSelect(label string, options []string) (int, error) {
	fmt.Fprintln(writer, label)
	for i, opt := range options {
		fmt.Fprintf(writer, "%d) %s\n", i+1, opt)
	}

	fmt.Fprint(writer, "Select option: ")
	input, err := readLine()
	if err != nil {
		return -1, err
	}

	var selection int
	if _, err := fmt.Sscanf(strings.TrimSpace(input), "%d", &selection); err != nil {
		return -1, err
	}

	if selection < 1 || selection > len(options) {
		return -1, fmt.Errorf("invalid selection")
	}

	return selection - 1, nil
}

// PromptMultilineString reads lines until an empty one or maxLines
func PromptMultilineString(label string, maxLines int) (string, error) {
	fmt.Fprintf(writer, "%s (finish with an empty line):\n", label)

	var lines []string
	for i := 0; i < maxLines; i++ {
		line, err := readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}
