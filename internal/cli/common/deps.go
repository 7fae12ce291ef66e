package common

import (
	"github.com/crmarques/vaultapi/vault"
	"github.com/spf13/cobra"
)

type CommandDependencies struct {
	NewClient  func(command *cobra.Command, flags *GlobalFlags) (*vault.Client, error)
	ReadSecret func(command *cobra.Command, prompt string) (string, error)
}

func RequireClient(command *cobra.Command, deps CommandDependencies, flags *GlobalFlags) (*vault.Client, error) {
	if deps.NewClient == nil {
		return nil, ValidationError("vault client is not configured", nil)
	}
	return deps.NewClient(command, flags)
}

func RequireSecret(command *cobra.Command, deps CommandDependencies, prompt string) (string, error) {
	if deps.ReadSecret == nil {
		return "", ValidationError("secret prompt is not configured", nil)
	}
	return deps.ReadSecret(command, prompt)
}
