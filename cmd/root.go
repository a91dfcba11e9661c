// Package cmd is for command line interactions with the gridss assembler.
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "gridss-assembler",
	Short:   `Assemble structural-variant contigs from a positional de Bruijn graph of path nodes.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringP("settings", "s", "", "settings file overriding the built-in defaults")
	viper.BindPFlag("settings", rootCmd.PersistentFlags().Lookup("settings"))
	viper.SetConfigType("yaml")
	cobra.OnInitialize(func() {
		if path := viper.GetString("settings"); path != "" {
			viper.SetConfigFile(path)
			if err := viper.ReadInConfig(); err != nil {
				log.Printf("settings: %v", err)
			}
		}
	})
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
