package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zwpool/fwupdate/internal/gateway"
	"github.com/zwpool/fwupdate/internal/protocol"
)

// timeRequestPacket is a single diagnostic exchange's request payload
// (see DESIGN.md's Open Question decisions for the choice of opcode).
// Only bytes 14 and 15 of the reply are interpreted, as HH:MM.
var timeRequestPacket = []byte{0x01}

var getTimeCmd = &cobra.Command{
	Use:   "get-time <nodeId> <mqttUrl> <apiTopic>",
	Short: "Send one diagnostic exchange and print the device's reported time",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, err := parseNodeID(args[0])
		if err != nil {
			return err
		}
		brokerURL, apiTopic := args[1], args[2]

		client, err := gateway.Connect(brokerURL, cfg.RPCTimeout, slog.Default())
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Subscribe(apiTopic); err != nil {
			return err
		}

		ctx := context.Background()
		reply, err := client.SendCommand(ctx, nodeID, 0, protocol.CommandClassManufacturerProprietary, protocol.ManufacturerID, timeRequestPacket)
		if err != nil {
			return err
		}
		if len(reply) < 16 {
			return fmt.Errorf("fwupdate: diagnostic reply too short (%d bytes)", len(reply))
		}

		fmt.Printf("%02d:%02d\n", reply[14], reply[15])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getTimeCmd)
}
