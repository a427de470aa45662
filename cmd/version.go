package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Version is the canonical release string. The default here is the fallback
// for `go run` and untagged builds. Production builds overwrite this via:
//
//	go build -ldflags "-X github.com/derickschaefer/fauna/cmd.Version=v0.3.1"
var Version = "v0.3.0"

// versionInfo is the structured payload for --format json and yaml output.
type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	GOOS      string `json:"goos" yaml:"goos"`
	GOARCH    string `json:"goarch" yaml:"goarch"`
	BuildTime string `json:"build_time,omitempty" yaml:"build_time,omitempty"`
}

// BuildTime is optionally injected at build time alongside Version:
//
//	-ldflags "-X github.com/derickschaefer/fauna/cmd.Version=v0.3.1
//	           -X github.com/derickschaefer/fauna/cmd.BuildTime=2026-02-16T12:00:00Z"
var BuildTime = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fauna version and build information",
	Long: `Print the fauna version string and build metadata.

Default output is plain text, suitable for shell scripts and pipelines.
Use --format json or yaml for structured output.

Examples:
  fauna version
  fauna version --format json
  fauna version --format json | jq .version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := globalFlags.Format

		info := versionInfo{
			Version:   Version,
			GoVersion: runtime.Version(),
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
			BuildTime: BuildTime,
		}

		switch format {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)

		case "yaml":
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(info); err != nil {
				return err
			}
			return enc.Close()

		case "jsonl":
			// Single object on one line, for mixing into a JSONL pipeline.
			b, err := json.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
			return nil

		default:
			// Plain text, one value per line.
			fmt.Fprintf(cmd.OutOrStdout(), "fauna   %s\n", info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "go      %s\n", info.GoVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "os      %s/%s\n", info.GOOS, info.GOARCH)
			if info.BuildTime != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built   %s\n", info.BuildTime)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
