package main

import (
	"errors"
	"sort"

	"github.com/zwpool/fwupdate/internal/archive"
)

var errNoBlobInArchive = errors.New("fwupdate: archive has no product with a firmware blob")

// firstProductWithBlob picks a deterministic product to drive the
// simulator against, since fake-upload has no real node to resolve
// against the archive.
func firstProductWithBlob(fw *archive.FirmwareArchive) (*archive.FirmwareProduct, error) {
	ids := make([]string, 0, len(fw.Products))
	for id, p := range fw.Products {
		if p.HasBlob {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errNoBlobInArchive
	}
	sort.Strings(ids)
	return fw.Products[ids[0]], nil
}
