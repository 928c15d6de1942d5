package transport

import (
	"context"
	"log/slog"
)

// Logging wraps another Transport and logs every outbound packet and
// inbound reply (or timeout) at debug level, delegating semantics
// unchanged.
type Logging struct {
	Inner  Transport
	Logger *slog.Logger
}

// NewLogging wraps inner with logging. If logger is nil, slog.Default()
// is used.
func NewLogging(inner Transport, logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{Inner: inner, Logger: logger}
}

func (l *Logging) SendAndReceive(ctx context.Context, packet []byte) ([]byte, error) {
	l.Logger.Debug("send packet", "bytes", packet)
	reply, err := l.Inner.SendAndReceive(ctx, packet)
	if err != nil {
		l.Logger.Debug("receive error", "err", err)
		return nil, err
	}
	if reply == nil {
		l.Logger.Debug("receive timeout")
		return nil, nil
	}
	l.Logger.Debug("receive packet", "bytes", reply)
	return reply, nil
}
