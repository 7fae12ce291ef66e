package common

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func IsInteractiveTerminal(command *cobra.Command) bool {
	in, inInfo, ok := fileFromReader(command.InOrStdin())
	if !ok || in == nil || inInfo == nil {
		return false
	}
	return term.IsTerminal(int(in.Fd()))
}

// ReadSecret prompts on stderr and reads a value without echo when stdin is a
// terminal. Otherwise it reads the first line of stdin.
func ReadSecret(command *cobra.Command, prompt string) (string, error) {
	if IsInteractiveTerminal(command) {
		in, _, _ := fileFromReader(command.InOrStdin())
		_, _ = fmt.Fprint(command.ErrOrStderr(), prompt)
		value, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprintln(command.ErrOrStderr())
		if err != nil {
			return "", ValidationError("failed to read from terminal", err)
		}
		return string(value), nil
	}

	line, err := bufio.NewReader(command.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", ValidationError("failed to read from stdin", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", ValidationError("no value provided on stdin", nil)
	}
	return line, nil
}

func fileFromReader(reader io.Reader) (*os.File, os.FileInfo, bool) {
	file, ok := reader.(*os.File)
	if !ok {
		return nil, nil, false
	}
	info, err := file.Stat()
	if err != nil {
		return nil, nil, false
	}
	return file, info, true
}
