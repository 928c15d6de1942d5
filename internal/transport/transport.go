// Package transport defines the single send/receive operation the upload
// engine drives the device through, and provides the implementations used
// to exercise it: a gateway-backed transport, an in-process device
// simulator, and a logging wrapper.
package transport

import "context"

// Transport sends packet and returns the device's next reply, or
// (nil, nil) if no reply arrives within the implementation's window. The
// operation is synchronous from the caller's point of view: one call
// yields exactly one reply or exactly one timeout, never both and never
// neither.
type Transport interface {
	SendAndReceive(ctx context.Context, packet []byte) (reply []byte, err error)
}
