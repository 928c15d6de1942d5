package upload

import (
	"errors"
	"fmt"

	"github.com/zwpool/fwupdate/internal/archive"
	"github.com/zwpool/fwupdate/internal/gateway"
	"github.com/zwpool/fwupdate/internal/protocol"
)

// ErrUnsupportedNode is returned when a node's identification does not
// map to a known product code, or the archive lacks that product's blob.
var ErrUnsupportedNode = errors.New("upload: unsupported node")

// ResolveProduct maps info to one of the archive's known products by
// manufacturer/product-type/product-id, returning ErrUnsupportedNode if
// either the mapping or the archive lookup fails.
func ResolveProduct(info gateway.NodeInfo, fw *archive.FirmwareArchive) (*archive.FirmwareProduct, error) {
	if info.ManufacturerID != protocol.ManufacturerID || info.ProductType != protocol.ProductType {
		return nil, fmt.Errorf("%w: manufacturer %#04x product type %#04x not recognized", ErrUnsupportedNode, info.ManufacturerID, info.ProductType)
	}

	code := protocol.ProductCodeFor(info.ProductID)
	if code == "" {
		return nil, fmt.Errorf("%w: product id %#04x not recognized", ErrUnsupportedNode, info.ProductID)
	}

	product, ok := fw.Products[code]
	if !ok || !product.HasBlob {
		return nil, fmt.Errorf("%w: archive has no firmware for product %s", ErrUnsupportedNode, code)
	}
	return product, nil
}
