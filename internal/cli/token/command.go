package token

import (
	"context"
	"fmt"
	"net/http"

	"github.com/crmarques/vaultapi/internal/cli/common"
	"github.com/crmarques/vaultapi/vault"
	"github.com/spf13/cobra"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "token",
		Short: "Create, renew and revoke tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	command.AddCommand(
		newCreateCommand(deps, globalFlags),
		newRenewCommand(deps, globalFlags),
		newRenewSelfCommand(deps, globalFlags),
		newRevokeSelfCommand(deps, globalFlags),
		newRevokeCommand(deps, globalFlags, "revoke", "Revoke a token and all of its children", (*vault.AuthToken).RevokeTree),
		newRevokeCommand(deps, globalFlags, "revoke-orphan", "Revoke a token, leaving its children orphaned", (*vault.AuthToken).RevokeOrphan),
		newRevokePrefixCommand(deps, globalFlags),
	)

	return command
}

func newCreateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var input common.InputFlags

	command := &cobra.Command{
		Use:   "create [key=value...]",
		Short: "Create a token",
		Example: `  vaultctl token create ttl=1h display_name=ci 'policies:=["reader"]'
  vaultctl token create --data '{"policies":["reader"],"meta":{"team":"core"}}'`,
		RunE: func(command *cobra.Command, args []string) error {
			options, err := common.ReadObject(command, input, args)
			if err != nil {
				return err
			}

			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := client.AuthToken.Create(command.Context(), options)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
	common.BindInputFlags(command, &input)

	return command
}

func newRenewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var increment int

	command := &cobra.Command{
		Use:   "renew <token>",
		Short: "Renew a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := client.AuthToken.Renew(command.Context(), args[0], increment)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
	bindIncrementFlag(command, &increment)

	return command
}

func newRenewSelfCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var increment int

	command := &cobra.Command{
		Use:   "renew-self",
		Short: "Renew the token in use",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := client.AuthToken.RenewSelf(command.Context(), increment)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
	bindIncrementFlag(command, &increment)

	return command
}

func newRevokeSelfCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-self",
		Short: "Revoke the token in use",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			status, err := client.AuthToken.RevokeSelf(command.Context())
			if err != nil {
				return err
			}
			return common.WriteText(command, globalFlags, fmt.Sprintf("Success! Token revoked (HTTP %d %s)", status, http.StatusText(status)))
		},
	}
}

func newRevokeCommand(
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	use string,
	short string,
	revoke func(*vault.AuthToken, context.Context, string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <token>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			if err := revoke(client.AuthToken, command.Context(), args[0]); err != nil {
				return err
			}
			return common.WriteText(command, globalFlags, "Success! Token revoked")
		},
	}
}

func newRevokePrefixCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-prefix <prefix>",
		Short: "Revoke every token issued under an auth path prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			if err := client.AuthToken.RevokePrefix(command.Context(), args[0]); err != nil {
				return err
			}
			return common.WriteText(command, globalFlags, "Success! Tokens revoked under: "+args[0])
		},
	}
}

func bindIncrementFlag(command *cobra.Command, increment *int) {
	command.Flags().IntVar(increment, "increment", 0, "requested lease extension in seconds")
}
