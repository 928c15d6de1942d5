package transport

import (
	"context"

	"github.com/zwpool/fwupdate/internal/gateway"
	"github.com/zwpool/fwupdate/internal/protocol"
)

// Gateway adapts a gateway.Client into a Transport for one node, issuing
// every packet as a sendCommand RPC over the Manufacturer-Proprietary
// command class.
type Gateway struct {
	Client *gateway.Client
	NodeID uint16
}

// SendAndReceive implements Transport.
func (g *Gateway) SendAndReceive(ctx context.Context, packet []byte) ([]byte, error) {
	return g.Client.SendCommand(ctx, g.NodeID, 0, protocol.CommandClassManufacturerProprietary, protocol.ManufacturerID, packet)
}
