package cmd

import (
	"github.com/spf13/cobra"

	"github.com/overlaytools/mkoverlay/internal/env"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   env.AppName,
		Short: env.AppName + " - partition removable media and synthesize a FAT32 overlay volume",
	}

	rootCmd.AddCommand(DefineFormatCommand())
	rootCmd.AddCommand(DefineInspectCommand())

	return rootCmd.Execute()
}
