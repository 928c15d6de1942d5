package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrIO covers broker disconnection and malformed RPC responses.
var ErrIO = errors.New("gateway: transport error")

// defaultCallTimeout bounds every RPC exchange when Connect is given a
// zero timeout.
const defaultCallTimeout = 10 * time.Second

const (
	kindSendCommand    = "sendCommand"
	kindDriverFunction = "driverFunction"
)

// Client is a single-slot-per-kind RPC client over an MQTT broker: one
// long-lived connection, with a capacity-1 channel per outstanding RPC
// kind for correlating requests to replies. A mutex guards the map of
// pending channels.
type Client struct {
	mq       mqtt.Client
	apiTopic string
	logger   *slog.Logger
	timeout  time.Duration

	mu      sync.Mutex
	pending map[string]chan []byte
}

// Connect dials brokerURL and returns a Client with no active
// subscription yet; call Subscribe before issuing RPCs. timeout bounds
// both the initial connection handshake and every subsequent RPC call;
// a zero value falls back to defaultCallTimeout (config.Config's
// RPCTimeout feeds this in the CLI).
func Connect(brokerURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("fwupdate").
		SetAutoReconnect(true).
		SetConnectTimeout(timeout)

	c := &Client{logger: logger, timeout: timeout, pending: make(map[string]chan []byte)}
	opts.SetDefaultPublishHandler(c.onMessage)

	mq := mqtt.NewClient(opts)
	token := mq.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("%w: timed out connecting to %s", ErrIO, brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	c.mq = mq
	return c, nil
}

// Subscribe opens the response subscription on apiTopic, recording it as
// the topic every subsequent request/response pair uses.
func (c *Client) Subscribe(apiTopic string) error {
	c.apiTopic = apiTopic
	token := c.mq.Subscribe(apiTopic, 0, c.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: subscribing to %s: %v", ErrIO, apiTopic, err)
	}
	return nil
}

// Close releases the broker connection. Safe to call on a nil or
// never-connected Client.
func (c *Client) Close() {
	if c == nil || c.mq == nil {
		return
	}
	c.mq.Disconnect(250)
}

// onMessage is the MQTT subscription callback. It classifies the reply
// by shape and delivers it to the matching pending slot with a
// non-blocking send, dropping (and logging) anything with no waiter.
func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	kind := kindDriverFunction
	if looksLikeSendCommandReply(payload) {
		kind = kindSendCommand
	}

	c.mu.Lock()
	ch := c.pending[kind]
	c.mu.Unlock()

	if ch == nil {
		c.logger.Warn("dropped gateway reply with no waiter", "kind", kind)
		return
	}
	select {
	case ch <- payload:
	default:
		c.logger.Warn("dropped gateway reply, slot already full", "kind", kind)
	}
}

// call publishes payload to <apiTopic>/set, registers the single-slot
// resolver for kind, and waits for either a reply or ctx's deadline.
// Only one call per kind may be outstanding at a time: requests of the
// same kind are strictly serialized.
func (c *Client) call(ctx context.Context, kind string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ch := make(chan []byte, 1)
	c.mu.Lock()
	c.pending[kind] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, kind)
		c.mu.Unlock()
	}()

	token := c.mq.Publish(c.apiTopic+"/set", 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: publishing %s: %v", ErrIO, kind, err)
	}

	select {
	case raw := <-ch:
		return raw, nil
	case <-ctx.Done():
		return nil, nil // timeout marker, per the Transport contract
	}
}

// SendCommand issues a sendCommand RPC for nodeID/endpoint/commandClass,
// wrapping payload as the Buffer argument, and returns the reply packet
// bytes from result.data.data.
func (c *Client) SendCommand(ctx context.Context, nodeID uint16, endpoint, commandClass int, manufacturerID uint16, payload []byte) ([]byte, error) {
	req := newSendCommandRequest(nodeID, endpoint, commandClass, manufacturerID, payload)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrIO, err)
	}

	raw, err := c.call(ctx, kindSendCommand, body)
	if err != nil || raw == nil {
		return nil, err
	}

	var resp sendCommandResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrIO, err)
	}
	if !resp.Success || resp.NodeID != int(nodeID) || resp.Endpoint != endpoint ||
		resp.CommandClass != commandClass || resp.Method != "sendAndReceiveData" {
		return nil, fmt.Errorf("%w: gateway rejected sendCommand or echoed mismatched fields", ErrIO)
	}

	reply := make([]byte, len(resp.Result.Data.Data))
	for i, v := range resp.Result.Data.Data {
		reply[i] = byte(v)
	}
	return reply, nil
}

// DriverFunction issues a driverFunction RPC with the given literal code
// and returns its verbatim result.
func (c *Client) DriverFunction(ctx context.Context, code string) (json.RawMessage, error) {
	body, err := json.Marshal(driverFunctionRequest{Args: []string{code}})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrIO, err)
	}

	raw, err := c.call(ctx, kindDriverFunction, body)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: driverFunction timed out", ErrIO)
	}

	var resp driverFunctionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrIO, err)
	}
	if !resp.Success || len(resp.Args) != 1 || resp.Args[0] != code {
		return nil, fmt.Errorf("%w: gateway rejected driverFunction or echoed a different code", ErrIO)
	}
	return resp.Result, nil
}
