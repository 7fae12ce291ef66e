package logical

import (
	"fmt"
	"io"

	"github.com/crmarques/vaultapi/internal/cli/common"
	"github.com/crmarques/vaultapi/vault"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentReads = 8

type readResult struct {
	Path   string        `json:"path"`
	Secret *vault.Secret `json:"secret"`
}

// NewCommands returns the top-level read, list, write and delete commands.
func NewCommands(deps common.CommandDependencies, globalFlags *common.GlobalFlags) []*cobra.Command {
	return []*cobra.Command{
		newReadCommand(deps, globalFlags),
		newListCommand(deps, globalFlags),
		newWriteCommand(deps, globalFlags),
		newDeleteCommand(deps, globalFlags),
	}
}

func newReadCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "read <path>...",
		Short: "Read secrets from one or more paths",
		Example: `  vaultctl read secret/app/db
  vaultctl read secret/a secret/b --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			results := make([]readResult, len(args))
			group, ctx := errgroup.WithContext(command.Context())
			group.SetLimit(maxConcurrentReads)
			for idx, path := range args {
				idx := idx
				path := path
				group.Go(func() error {
					secret, err := client.Logical.Read(ctx, path)
					if err != nil {
						return fmt.Errorf("read %s: %w", path, err)
					}
					results[idx] = readResult{Path: path, Secret: secret}
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}

			if len(results) == 1 {
				return common.WriteOutput(command, globalFlags, results[0].Secret, common.RenderSecret)
			}
			return common.WriteOutput(command, globalFlags, results, func(w io.Writer, items []readResult) error {
				for idx, item := range items {
					if idx > 0 {
						if _, err := fmt.Fprintln(w); err != nil {
							return err
						}
					}
					if _, err := fmt.Fprintf(w, "== %s ==\n", item.Path); err != nil {
						return err
					}
					if err := common.RenderSecret(w, item.Secret); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List the keys under a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := client.Logical.List(command.Context(), args[0])
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderList)
		},
	}
}

func newWriteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var input common.InputFlags

	command := &cobra.Command{
		Use:   "write <path> [key=value...]",
		Short: "Write data to a path",
		Long: `Write data to a path.

The body is built from key=value arguments (key=@file reads the value from a
file, key:=<json> embeds a JSON value), from --data or from --payload.`,
		Example: `  vaultctl write secret/app username=app password=@password.txt ttl:=3600
  vaultctl write secret/app --data '{"username":"app"}'
  vaultctl write secret/app --payload body.yaml --format yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			data, err := common.ReadObject(command, input, args[1:])
			if err != nil {
				return err
			}

			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			secret, err := client.Logical.Write(command.Context(), args[0], data)
			if err != nil {
				return err
			}
			if secret == nil {
				return common.WriteText(command, globalFlags, "Success! Data written to: "+args[0])
			}
			return common.WriteOutput(command, globalFlags, secret, common.RenderSecret)
		},
	}
	common.BindInputFlags(command, &input)

	return command
}

func newDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete the data at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			if err := client.Logical.Delete(command.Context(), args[0]); err != nil {
				return err
			}
			return common.WriteText(command, globalFlags, "Success! Data deleted (if it existed) at: "+args[0])
		},
	}
}
