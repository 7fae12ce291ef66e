package common

import (
	"time"

	"github.com/spf13/cobra"
)

type GlobalFlags struct {
	ConfigFile   string
	Address      string
	Token        string
	Timeout      time.Duration
	Output       string
	Query        string
	Debug        bool
	OTLPEndpoint string
	OTLPInsecure bool
	MetricsFile  string
}

type InputFlags struct {
	Data    string
	Payload string
	Format  string
}

// BindGlobalFlags registers the persistent flags. address, token and timeout
// override the configuration file and VAULT_* variables only when set.
func BindGlobalFlags(command *cobra.Command, flags *GlobalFlags) {
	command.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "configuration file path")
	command.PersistentFlags().StringVarP(&flags.Address, "address", "a", "", "vault server address (overrides VAULT_ADDR)")
	command.PersistentFlags().StringVarP(&flags.Token, "token", "t", "", "vault token (overrides VAULT_TOKEN)")
	command.PersistentFlags().DurationVar(&flags.Timeout, "timeout", 0, "request timeout (overrides VAULT_CLIENT_TIMEOUT)")
	command.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format: text|json|yaml")
	command.PersistentFlags().StringVarP(&flags.Query, "query", "q", "", "jq expression applied to the command output")
	command.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "log every request to stderr")
	command.PersistentFlags().StringVar(&flags.OTLPEndpoint, "otlp-endpoint", "", "export traces and metrics over OTLP/gRPC to host:port")
	command.PersistentFlags().BoolVar(&flags.OTLPInsecure, "otlp-insecure", false, "disable TLS for the OTLP exporter")
	command.PersistentFlags().StringVar(&flags.MetricsFile, "metrics-file", "", "write request metrics in Prometheus text format to this file")
	RegisterOutputFlagCompletion(command)
}

// BindInputFlags registers the flags that supply a JSON or YAML object as
// an alternative to key=value arguments.
func BindInputFlags(command *cobra.Command, flags *InputFlags) {
	command.Flags().StringVar(&flags.Data, "data", "", "JSON object sent as the request body")
	command.Flags().StringVarP(&flags.Payload, "payload", "f", "", "payload file path (use '-' to read from stdin)")
	command.Flags().StringVarP(&flags.Format, "format", "i", OutputJSON, "payload format: json|yaml")
	_ = command.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{OutputJSON, OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
}

func RegisterOutputFlagCompletion(command *cobra.Command) {
	_ = command.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{OutputText, OutputJSON, OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
}
