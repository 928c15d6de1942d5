package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/zwpool/fwupdate/internal/gateway"
	"github.com/zwpool/fwupdate/internal/transport"
	"github.com/zwpool/fwupdate/internal/upload"
)

// ErrUserDeclined is returned when the confirmation prompt is not
// answered with exactly "YES".
var ErrUserDeclined = errors.New("fwupdate: user declined the upload")

var uploadCmd = &cobra.Command{
	Use:   "upload <file> <nodeId> <mqttUrl> <apiTopic>",
	Short: "Deliver a firmware archive to a real node over the gateway broker",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		fw, err := loadArchive(args[0])
		if err != nil {
			return err
		}
		nodeID, err := parseNodeID(args[1])
		if err != nil {
			return err
		}
		brokerURL, apiTopic := args[2], args[3]

		client, err := gateway.Connect(brokerURL, cfg.RPCTimeout, slog.Default())
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Subscribe(apiTopic); err != nil {
			return err
		}

		ctx := context.Background()
		info, err := gateway.GetNodeInfo(ctx, client, nodeID)
		if err != nil {
			return err
		}
		product, err := upload.ResolveProduct(info, fw)
		if err != nil {
			return err
		}

		fmt.Printf("node %d: %s firmware, %d bytes. Proceed? [Enter \"YES\" to confirm] ", nodeID, product.ID, product.BlobLength)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if trimNewline(answer) != "YES" {
			return ErrUserDeclined
		}

		gw := &transport.Gateway{Client: client, NodeID: nodeID}
		logged := transport.NewLogging(gw, slog.Default())

		res, err := upload.Run(ctx, logged, product.Blob, slog.Default())
		if err != nil {
			return err
		}
		if res.Confirmed {
			fmt.Println("upload confirmed by device")
			return nil
		}
		fmt.Println("upload assumed successful; no final confirmation observed")
		return errors.New("fwupdate: upload outcome ambiguous, no final confirmation")
	},
}

func parseNodeID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("fwupdate: invalid node id %q: %w", s, err)
	}
	return uint16(v), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
