package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/crmarques/vaultapi/internal/cli/common"
	"github.com/spf13/cobra"
)

// Set through -ldflags at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func NewCommand(globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vaultctl build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.WriteOutput(cmd, globalFlags, current(), func(w io.Writer, item info) error {
				_, err := fmt.Fprintf(w, "vaultctl %s (%s) %s %s %s\n", item.Version, item.Commit, item.BuildDate, item.GoVersion, item.Platform)
				return err
			})
		},
	}
}

// current falls back to the module build information for binaries installed
// with go install, which carry no ldflags.
func current() info {
	value := info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return value
	}
	if value.Version == "dev" && buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		value.Version = buildInfo.Main.Version
	}
	for _, setting := range buildInfo.Settings {
		switch {
		case setting.Key == "vcs.revision" && value.Commit == "unknown":
			value.Commit = setting.Value
		case setting.Key == "vcs.time" && value.BuildDate == "unknown":
			value.BuildDate = setting.Value
		}
	}
	return value
}
