package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zwpool/fwupdate/internal/archive"
)

var (
	writeIHex bool
	writeBin  bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Decode a firmware archive and print its contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fw, err := loadArchive(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("format version: %s\n", fw.FormatVersion)

		ids := make([]string, 0, len(fw.Products))
		for id := range fw.Products {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			p := fw.Products[id]
			fmt.Printf("product %s: name=%q version=%q message=%q\n", p.ID, p.Name, p.Version, p.Message)
			if !p.HasBlob {
				fmt.Println("  no firmware blob")
				continue
			}
			fmt.Printf("  blob: %d bytes, sha256=%s\n", p.BlobLength, p.BlobHash)

			base := strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "-" + p.ID
			if writeBin {
				path := base + ".bin"
				if err := os.WriteFile(path, p.Blob, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				fmt.Printf("  wrote %s\n", path)
			}
			if writeIHex {
				path := base + ".ihex"
				if err := os.WriteFile(path, archive.EncodeIHex(p), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				fmt.Printf("  wrote %s\n", path)
			}
		}
		return nil
	},
}

func loadArchive(path string) (*archive.FirmwareArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	plaintext, err := archive.Decrypt(f)
	if err != nil {
		return nil, err
	}
	return archive.Decode(plaintext)
}

func init() {
	describeCmd.Flags().BoolVar(&writeIHex, "write-ihex", false, "write each product's blob as a .ihex file next to the archive")
	describeCmd.Flags().BoolVar(&writeBin, "write-bin", false, "write each product's blob as a .bin file next to the archive")
	rootCmd.AddCommand(describeCmd)
}
