package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zwpool/fwupdate/internal/archive"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt <file>",
	Short: "Decrypt a firmware archive and write the plaintext to standard output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()

		plaintext, err := archive.Decrypt(f)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(plaintext)
		return err
	},
}

func init() {
	rootCmd.AddCommand(decryptCmd)
}
