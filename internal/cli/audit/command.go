package audit

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/crmarques/vaultapi/internal/cli/common"
	"github.com/crmarques/vaultapi/vault"
	"github.com/spf13/cobra"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "audit",
		Short: "Manage audit devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newEnableCommand(deps, globalFlags),
		newDisableCommand(deps, globalFlags),
	)

	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enabled audit devices",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			mounts, err := client.Audit.List(command.Context())
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, mounts, renderMounts)
		},
	}
}

func newEnableCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var description string

	command := &cobra.Command{
		Use:   "enable <path> <type> [option=value...]",
		Short: "Enable an audit device",
		Example: `  vaultctl audit enable file file file_path=/var/log/vault_audit.log
  vaultctl audit enable syslog syslog --description "central syslog" tag=vault`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			options, err := common.ParseAssignments(args[2:])
			if err != nil {
				return err
			}

			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			if err := client.Audit.Enable(command.Context(), args[0], args[1], description, options); err != nil {
				return err
			}
			return common.WriteText(command, globalFlags, fmt.Sprintf("Success! Enabled the %s audit device at: %s", args[1], args[0]))
		},
	}
	command.Flags().StringVar(&description, "description", "", "human-friendly description of the device")

	return command
}

func newDisableCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <path>",
		Short: "Disable an audit device",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			client, err := common.RequireClient(command, deps, globalFlags)
			if err != nil {
				return err
			}

			if err := client.Audit.Disable(command.Context(), args[0]); err != nil {
				return err
			}
			return common.WriteText(command, globalFlags, "Success! Disabled audit device (if it was enabled) at: "+args[0])
		},
	}
}

func renderMounts(w io.Writer, mounts map[string]vault.AuditMount) error {
	if len(mounts) == 0 {
		_, err := fmt.Fprintln(w, "No audit devices are enabled.")
		return err
	}

	table := tabwriter.NewWriter(w, 0, 4, 4, ' ', 0)
	_, _ = fmt.Fprintln(table, "Path\tType\tDescription")
	_, _ = fmt.Fprintln(table, "----\t----\t-----------")
	for _, path := range sortedPaths(mounts) {
		mount := mounts[path]
		description := mount.Description
		if description == "" {
			description = "n/a"
		}
		_, _ = fmt.Fprintf(table, "%s\t%s\t%s\n", path, mount.Type, description)
	}
	return table.Flush()
}

func sortedPaths(mounts map[string]vault.AuditMount) []string {
	paths := make([]string, 0, len(mounts))
	for path := range mounts {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
