package testkit

import (
	"bytes"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

var executeMu sync.Mutex

func ExecuteCommandForTest(command *cobra.Command, stdin string, args ...string) (string, error) {
	output, _, err := ExecuteCommandForTestWithStreams(command, stdin, args...)
	return output, err
}

// ExecuteCommandForTestWithStreams runs command with args and returns what it
// wrote to stdout and stderr. Executions are serialized because cobra mutates
// shared flag annotations while serving help.
func ExecuteCommandForTestWithStreams(command *cobra.Command, stdin string, args ...string) (string, string, error) {
	executeMu.Lock()
	defer executeMu.Unlock()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	command.SetOut(stdout)
	command.SetErr(stderr)
	command.SetIn(strings.NewReader(stdin))
	command.SetArgs(args)

	err := command.Execute()
	return stdout.String(), stderr.String(), err
}

// RegisteredPaths lists the space-joined paths of every subcommand below
// command, skipping help and cobra's hidden completion commands.
func RegisteredPaths(command *cobra.Command) []string {
	var paths []string
	var walk func(*cobra.Command, []string)
	walk = func(current *cobra.Command, prefix []string) {
		for _, child := range current.Commands() {
			name := child.Name()
			if name == "help" || strings.HasPrefix(name, "__") {
				continue
			}
			path := append(append([]string{}, prefix...), name)
			paths = append(paths, strings.Join(path, " "))
			walk(child, path)
		}
	}
	walk(command, nil)
	return paths
}
