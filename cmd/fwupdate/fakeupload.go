package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zwpool/fwupdate/internal/transport"
	"github.com/zwpool/fwupdate/internal/upload"
)

var fakeUploadCmd = &cobra.Command{
	Use:   "fake-upload <file>",
	Short: "Run the upload engine against the in-process device simulator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fw, err := loadArchive(args[0])
		if err != nil {
			return err
		}

		product, err := firstProductWithBlob(fw)
		if err != nil {
			return err
		}

		fake := transport.NewFake()
		logged := transport.NewLogging(fake, slog.Default())

		res, err := upload.Run(context.Background(), logged, product.Blob, slog.Default())
		if err != nil {
			return err
		}
		if res.Confirmed {
			fmt.Println("upload confirmed by simulator")
		} else {
			fmt.Println("upload assumed successful; no final confirmation observed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fakeUploadCmd)
}
