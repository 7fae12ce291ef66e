package cli

import (
	"context"

	"github.com/crmarques/vaultapi/internal/cli/audit"
	"github.com/crmarques/vaultapi/internal/cli/common"
	"github.com/crmarques/vaultapi/internal/cli/logical"
	"github.com/crmarques/vaultapi/internal/cli/login"
	"github.com/crmarques/vaultapi/internal/cli/token"
	"github.com/crmarques/vaultapi/internal/cli/version"
	"github.com/spf13/cobra"
)

func NewRootCommand(deps Dependencies) *cobra.Command {
	commandDeps := deps.commandDependencies()
	var globalFlags common.GlobalFlags

	root := &cobra.Command{
		Use:   "vaultctl",
		Short: "Talk to the Vault HTTP API",
		Long: `Talk to the Vault HTTP API.

The server address and token come from --address/--token, the VAULT_ADDR and
VAULT_TOKEN environment variables, or the configuration file, in that order.`,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
		Args: cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			if err := common.ValidateOutputFormat(globalFlags.Output); err != nil {
				return err
			}

			commandContext := command.Context()
			if commandContext == nil {
				commandContext = context.Background()
			}
			session, err := common.NewSession(commandContext, &globalFlags, command.ErrOrStderr())
			if err != nil {
				return err
			}
			command.SetContext(common.WithSession(commandContext, session))

			session.Logger.V(1).Info("command started",
				"command", command.CommandPath(),
				"output", globalFlags.Output,
				"otlp", globalFlags.OTLPEndpoint != "",
			)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	common.BindGlobalFlags(root, &globalFlags)

	root.AddGroup(
		&cobra.Group{ID: "secrets", Title: "Secret Commands:"},
		&cobra.Group{ID: "auth", Title: "Auth Commands:"},
		&cobra.Group{ID: "other", Title: "Other Commands:"},
	)

	for _, command := range logical.NewCommands(commandDeps, &globalFlags) {
		command.GroupID = "secrets"
		root.AddCommand(command)
	}
	for _, command := range []*cobra.Command{
		login.NewCommand(commandDeps, &globalFlags),
		token.NewCommand(commandDeps, &globalFlags),
	} {
		command.GroupID = "auth"
		root.AddCommand(command)
	}
	for _, command := range []*cobra.Command{
		audit.NewCommand(commandDeps, &globalFlags),
		version.NewCommand(&globalFlags),
	} {
		command.GroupID = "other"
		root.AddCommand(command)
	}
	root.SetHelpCommandGroupID("other")
	root.SetCompletionCommandGroupID("other")

	return root
}
