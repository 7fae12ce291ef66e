package login

import (
	"context"

	"github.com/crmarques/vaultapi/internal/cli/common"
	"github.com/crmarques/vaultapi/vault"
	"github.com/spf13/cobra"
)

type passwordLogin func(*vault.Authenticate, context.Context, string, string, vault.Object) (*vault.Secret, error)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against an auth backend",
		Long: `Authenticate against an auth backend and print the issued token.

Extra key=value arguments are merged into the login request body.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	command.AddCommand(
		newTokenCommand(deps, globalFlags),
		newPasswordCommand(deps, globalFlags, "userpass", "Log in with a username and password", (*vault.Authenticate).Userpass),
		newPasswordCommand(deps, globalFlags, "ldap", "Log in with LDAP credentials", (*vault.Authenticate).LDAP),
		newGitHubCommand(deps, globalFlags),
		newAppIDCommand(deps, globalFlags),
		newAppRoleCommand(deps, globalFlags),
	)

	return command
}

func newTokenCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "token [token]",
		Short: "Validate a token and show its properties",
		Long: `Validate a token through lookup-self and show its properties.

Without an argument the configured token is looked up.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			token := ""
			if len(args) == 1 {
				token = args[0]
			}
			secret, err := client.Authenticate.Token(command.Context(), token)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
}

func newPasswordCommand(
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	backend string,
	short string,
	login passwordLogin,
) *cobra.Command {
	var password string

	command := &cobra.Command{
		Use:   backend + " <username> [key=value...]",
		Short: short,
		Long:  short + ".\n\nWithout --password the password is prompted for, or read from stdin when it is not a terminal.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			options, err := common.ParseAssignments(args[1:])
			if err != nil {
				return err
			}
			if !command.Flags().Changed("password") {
				password, err = common.RequireSecret(command, deps, "Password: ")
				if err != nil {
					return err
				}
			}

			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := login(client.Authenticate, command.Context(), args[0], password, options)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
	command.Flags().StringVarP(&password, "password", "p", "", "password (prompted for when omitted)")

	return command
}

func newGitHubCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "github [github-token]",
		Short: "Log in with a GitHub personal access token",
		Long:  "Log in with a GitHub personal access token.\n\nWithout an argument the token is prompted for.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			githubToken := ""
			if len(args) == 1 {
				githubToken = args[0]
			} else {
				prompted, err := common.RequireSecret(command, deps, "GitHub token: ")
				if err != nil {
					return err
				}
				githubToken = prompted
			}

			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := client.Authenticate.GitHub(command.Context(), githubToken)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
}

func newAppIDCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "app-id <app-id> <user-id> [key=value...]",
		Short: "Log in with the app-id backend",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			options, err := common.ParseAssignments(args[2:])
			if err != nil {
				return err
			}

			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := client.Authenticate.AppID(command.Context(), args[0], args[1], options)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
}

func newAppRoleCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "approle <role-id> <secret-id> [key=value...]",
		Short: "Log in with the approle backend",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			options, err := common.ParseAssignments(args[2:])
			if err != nil {
				return err
			}

			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := client.Authenticate.AppRole(command.Context(), args[0], args[1], options)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
}
