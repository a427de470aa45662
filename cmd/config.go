package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fauna/internal/config"
	"github.com/derickschaefer/fauna/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fauna configuration",
	Long:  `Read and write fauna configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Edit it and set source to your species CSV to get started.")
		return nil
	},
}

// configOut is the --format json shape of `config get`.
type configOut struct {
	Source      string  `json:"source"`
	Format      string  `json:"default_format"`
	Timeout     string  `json:"timeout"`
	Rate        float64 `json:"rate"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	MinWidth    float64 `json:"min_width"`
	MinHeight   float64 `json:"min_height"`
	DBPath      string  `json:"db_path"`
	ListenAddr  string  `json:"listen_addr"`
	S3Region    string  `json:"s3_region"`
	S3Endpoint  string  `json:"s3_endpoint"`
	S3PathStyle bool    `json:"s3_path_style"`
	ConfigFile  string  `json:"config_file"`
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}
		orUnset := func(s string) string {
			if s == "" {
				return "(not set)"
			}
			return s
		}

		if resolveFormat(cfg.Format) == render.FormatJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(configOut{
				Source:      cfg.Source,
				Format:      cfg.Format,
				Timeout:     cfg.Timeout.String(),
				Rate:        cfg.Rate,
				Width:       cfg.Width,
				Height:      cfg.Height,
				MinWidth:    cfg.MinWidth,
				MinHeight:   cfg.MinHeight,
				DBPath:      cfg.DBPath,
				ListenAddr:  cfg.ListenAddr,
				S3Region:    cfg.S3Region,
				S3Endpoint:  cfg.S3Endpoint,
				S3PathStyle: cfg.S3PathStyle,
				ConfigFile:  src,
			})
		}

		printKVTable(cmd.OutOrStdout(), [][]string{
			{"source", orUnset(cfg.Source)},
			{"default_format", cfg.Format},
			{"timeout", cfg.Timeout.String()},
			{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
			{"size", fmt.Sprintf("%gx%g", cfg.Width, cfg.Height)},
			{"minimum", fmt.Sprintf("%gx%g", cfg.MinWidth, cfg.MinHeight)},
			{"db_path", cfg.DBPath},
			{"listen_addr", cfg.ListenAddr},
			{"s3_region", cfg.S3Region},
			{"s3_endpoint", orUnset(cfg.S3Endpoint)},
			{"s3_path_style", strconv.FormatBool(cfg.S3PathStyle)},
			{"config_file", src},
		})
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])

		f, err := loadConfigFile()
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			f = config.Template()
		}
		if err := setConfigKey(&f, key, args[1]); err != nil {
			return err
		}
		if err := config.WriteFile(config.DefaultConfigFile, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, config.DefaultConfigFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// configKeys lists the keys accepted by `config set`.
var configKeys = []string{
	"source", "default_format", "timeout", "rate", "width", "height",
	"min_width", "min_height", "db_path", "listen_addr",
	"s3_region", "s3_endpoint", "s3_path_style",
}

// setConfigKey assigns val to the config.json field named key.
func setConfigKey(f *config.File, key, val string) error {
	num := func() (float64, error) {
		v, err := strconv.ParseFloat(val, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%s must be a positive number", key)
		}
		return v, nil
	}
	var err error
	switch key {
	case "source":
		f.Source = val
	case "default_format", "format":
		if !render.ValidFormat(val) {
			return fmt.Errorf("unknown format %q (want one of %v)", val, render.Formats)
		}
		f.DefaultFormat = val
	case "timeout":
		f.Timeout = val
	case "rate":
		f.Rate, err = num()
	case "width":
		f.Width, err = num()
	case "height":
		f.Height, err = num()
	case "min_width":
		f.MinWidth, err = num()
	case "min_height":
		f.MinHeight, err = num()
	case "db_path":
		f.DBPath = val
	case "listen_addr":
		f.ListenAddr = val
	case "s3_region":
		f.S3Region = val
	case "s3_endpoint":
		f.S3Endpoint = val
	case "s3_path_style":
		f.S3PathStyle, err = strconv.ParseBool(val)
	default:
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(configKeys, ", "))
	}
	return err
}

// loadConfigFile reads config.json from cwd; used by configSetCmd.
func loadConfigFile() (config.File, error) {
	var f config.File
	data, err := os.ReadFile(config.DefaultConfigFile)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parsing config.json: %w", err)
	}
	return f, nil
}
