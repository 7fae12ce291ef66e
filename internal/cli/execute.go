package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crmarques/vaultapi/config"
	"github.com/crmarques/vaultapi/faults"
	"github.com/crmarques/vaultapi/internal/cli/common"
	"github.com/crmarques/vaultapi/vault"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

type Dependencies struct {
	// NewClient builds the client for a command. When nil the client is built
	// from the configuration file, the environment and the global flags.
	NewClient  func(command *cobra.Command, flags *common.GlobalFlags) (*vault.Client, error)
	ReadSecret func(command *cobra.Command, prompt string) (string, error)
}

func (d Dependencies) commandDependencies() common.CommandDependencies {
	deps := common.CommandDependencies{
		NewClient:  d.NewClient,
		ReadSecret: d.ReadSecret,
	}
	if deps.NewClient == nil {
		deps.NewClient = NewConfiguredClient
	}
	if deps.ReadSecret == nil {
		deps.ReadSecret = common.ReadSecret
	}
	return deps
}

// NewConfiguredClient loads the settings for command and attaches the
// session's logger and telemetry to the resulting client.
func NewConfiguredClient(command *cobra.Command, flags *common.GlobalFlags) (*vault.Client, error) {
	configFile := ""
	if flags != nil {
		configFile = flags.ConfigFile
	}

	cfg, err := config.Load(command.Flags(), configFile)
	if err != nil {
		return nil, err
	}

	session := common.SessionFrom(command.Context())
	conf, err := vault.NewConfigurationFromConfig(cfg, session.ConfigurationOptions()...)
	if err != nil {
		return nil, err
	}

	if session != nil {
		session.Logger.V(1).Info("vault client configured", "address", conf.Address(), "hasToken", conf.Token() != "")
	}
	return vault.NewClient(conf), nil
}

func Execute(deps Dependencies) error {
	return executeRoot(NewRootCommand(deps))
}

// executeRoot runs root and closes the telemetry session of the executed
// command, so metrics and spans are flushed for failed commands too.
func executeRoot(root *cobra.Command) error {
	command, err := root.ExecuteC()

	if command != nil {
		shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		closeErr := common.SessionFrom(command.Context()).Close(shutdownContext)
		cancel()
		if err == nil {
			err = closeErr
		}
	}

	if err != nil {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), "Error: "+strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		return 1
	}

	switch typedErr.Category {
	case faults.ValidationError:
		return 2
	case faults.ServiceError:
		return 3
	case faults.DecodeError:
		return 4
	case faults.TransportError:
		return 6
	default:
		return 1
	}
}
