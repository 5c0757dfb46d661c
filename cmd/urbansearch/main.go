// Command urbansearch serves and queries the destination search engine.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/urbansearch/internal/config"
	"github.com/kailas-cloud/urbansearch/internal/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	env        string
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "urbansearch",
		Short: "Multi-tier destination search engine",
		Long: `urbansearch answers free-text queries against a destination catalog.
It tries vector similarity, full-text, curated tags and keyword matching
in that order and ranks the first non-empty result set.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.env, "env", config.GetEnv(), "environment name (config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "explicit config file path (overrides --env)")

	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(newSearchCmd(flags))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.String())
		},
	})

	return rootCmd
}

func (f *globalFlags) load() (config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	return config.Load(f.env)
}
