package gateway

import (
	"context"
	"encoding/json"
	"fmt"
)

// NodeInfo is the parsed result of a driverFunction node-info lookup.
type NodeInfo struct {
	ManufacturerID  uint16
	ProductType     uint16
	ProductID       uint16
	FirmwareVersion string
}

type nodeInfoResult struct {
	ManufacturerID  int    `json:"manufacturerId"`
	ProductType     int    `json:"productType"`
	ProductID       int    `json:"productId"`
	FirmwareVersion string `json:"firmwareVersion"`
}

// GetNodeInfo fetches and parses node identification for nodeID. The
// literal code string is a gateway-side implementation detail (see
// DESIGN.md's Open Question decisions for the choice made here).
func GetNodeInfo(ctx context.Context, c *Client, nodeID uint16) (NodeInfo, error) {
	code := fmt.Sprintf("this.nodes.get(%d).deviceConfig", nodeID)
	raw, err := c.DriverFunction(ctx, code)
	if err != nil {
		return NodeInfo{}, err
	}

	var res nodeInfoResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return NodeInfo{}, fmt.Errorf("%w: decoding node info result: %v", ErrIO, err)
	}
	return NodeInfo{
		ManufacturerID:  uint16(res.ManufacturerID),
		ProductType:     uint16(res.ProductType),
		ProductID:       uint16(res.ProductID),
		FirmwareVersion: res.FirmwareVersion,
	}, nil
}
