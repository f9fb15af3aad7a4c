package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	var root = &cobra.Command{
		Use:           "medconsensus",
		Short:         "Multi-step medical consensus pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	root.AddCommand(serveCMD(&cfgPath), diagnoseCMD(&cfgPath), trialsCMD(), languagesCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
