package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pixelfolio/cli/pkg/output"
	"golang.org/x/term"
)

var (
	reader  = bufio.NewReader(os.Stdin)
	inputFd = int(os.Stdin.Fd())
	isTTY   = func() bool { return term.IsTerminal(inputFd) }
)

// SetInput reads answers from r instead of stdin. Password prompts read
// plain lines from a non-terminal input.
func SetInput(r io.Reader) {
	if r == nil {
		reader = bufio.NewReader(os.Stdin)
		isTTY = func() bool { return term.IsTerminal(inputFd) }
		return
	}
	reader = bufio.NewReader(r)
	isTTY = func() bool { return false }
}

func readLine() (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil && !(err == io.EOF && input != "") {
		return "", err
	}
	return strings.TrimRight(input, "\r\n"), nil
}

// PromptString prompts user for a string input
func PromptString(label string) (string, error) {
	fmt.Fprint(output.Writer(), label)
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
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		output.PrintWarning("A value is required.")
	}
}

// PromptDefault shows the current value and keeps it on an empty answer
func PromptDefault(label, current string) (string, error) {
	label = strings.TrimRight(label, ": ")
	if current != "" {
		label = fmt.Sprintf("%s [%s]: ", label, current)
	} else {
		label += ": "
	}
	s, err := PromptString(label)
	if err != nil {
		return "", err
	}
	if s == "" {
		return current, nil
	}
	return s, nil
}

// PromptPassword prompts user for a password (hidden input)
func PromptPassword(label string) (string, error) {
	fmt.Fprint(output.Writer(), label)

	if !isTTY() {
		return readLine()
	}

	bytepw, err := term.ReadPassword(inputFd)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(output.Writer())
	return string(bytepw), nil
}

// PromptNewPassword asks twice and checks the answers match and meet the
// minimum length
func PromptNewPassword(label string, minLen int) (string, error) {
	pw, err := PromptPassword(label)
	if err != nil {
		return "", err
	}
	if len(pw) < minLen {
		return "", fmt.Errorf("password must be at least %d characters", minLen)
	}
	confirm, err := PromptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pw, nil
}

// PromptConfirm prompts user for yes/no confirmation
func PromptConfirm(label string) (bool, error) {
	fmt.Fprint(output.Writer(), label+" (y/n) ")
	input, err := readLine()
	if err != nil {
		return false, err
	}

	response := strings.TrimSpace(strings.ToLower(input))
	return response == "y" || response == "yes", nil
}

// PromptSelect prompts user to select from options
func PromptSelect(label string, options []string) (int, error) {
	w := output.Writer()
	fmt.Fprintln(w, label)
	for i, opt := range options {
		fmt.Fprintf(w, "%d) %s\n", i+1, opt)
	}

	fmt.Fprint(w, "Select option: ")
	input, err := readLine()
	if err != nil {
		return -1, err
	}

	selection, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return -1, fmt.Errorf("invalid selection %q", strings.TrimSpace(input))
	}
	if selection < 1 || selection > len(options) {
		return -1, fmt.Errorf("invalid selection")
	}

	return selection - 1, nil
}

// PromptMultilineString reads lines until an empty line or maxLines
func PromptMultilineString(label string, maxLines int) (string, error) {
	fmt.Fprintf(output.Writer(), "%s (empty line to finish):\n", label)

	var lines []string
	for i := 0; i < maxLines; i++ {
		line, err := readLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}
