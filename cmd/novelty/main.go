// Command novelty scores and alerts on streaming log lines using a
// decayed statistical novelty model. See the subcommands' help text for
// usage: score, tail, serve, and snapshot inspect.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crimson-sun/novelty/internal/config"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "novelty",
	Short: "Streaming log novelty detection",
	Long: `novelty ingests unstructured log lines and surfaces the rare,
high-signal ones in real time, with an explanation of why each line is
surprising.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML/JSON/TOML)")
	config.BindFlags(rootCmd, v)

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(v, cfgFile)
}
