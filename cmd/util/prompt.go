package util

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm returns a function asking a yes/no question on out and reading
// the answer from in. Anything but y or yes is a no.
func Confirm(in io.Reader, out io.Writer) func(prompt string) (bool, error) {
	r := bufio.NewReader(in)
	return func(prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
