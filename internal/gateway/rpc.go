// Package gateway implements the JSON RPC client for the external Z-Wave
// gateway, reached over an MQTT broker.
package gateway

import "encoding/json"

// sendCommandTarget is args[0] of a sendCommand request.
type sendCommandTarget struct {
	NodeID       uint16 `json:"nodeId"`
	Endpoint     int    `json:"endpoint"`
	CommandClass int    `json:"commandClass"`
}

// bufferArg is the `{"type":"Buffer","data":[...]}` wire encoding the
// gateway uses for byte payloads. Data is carried as an int array, not a
// Go []byte (which would marshal as base64).
type bufferArg struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

func newBufferArg(b []byte) bufferArg {
	data := make([]int, len(b))
	for i, v := range b {
		data[i] = int(v)
	}
	return bufferArg{Type: "Buffer", Data: data}
}

type sendCommandRequest struct {
	Args []any `json:"args"`
}

func newSendCommandRequest(nodeID uint16, endpoint, commandClass int, manufacturerID uint16, payload []byte) sendCommandRequest {
	return sendCommandRequest{
		Args: []any{
			sendCommandTarget{NodeID: nodeID, Endpoint: endpoint, CommandClass: commandClass},
			"sendAndReceiveData",
			[]any{int(manufacturerID), newBufferArg(payload)},
		},
	}
}

type sendCommandResponse struct {
	NodeID       int    `json:"nodeId"`
	Endpoint     int    `json:"endpoint"`
	CommandClass int    `json:"commandClass"`
	Method       string `json:"method"`
	Success      bool   `json:"success"`
	Result       struct {
		Data struct {
			Data []int `json:"data"`
		} `json:"data"`
	} `json:"result"`
}

type driverFunctionRequest struct {
	Args []string `json:"args"`
}

type driverFunctionResponse struct {
	Args    []string        `json:"args"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// looksLikeSendCommandReply reports whether raw is plausibly a
// sendCommand response rather than a driverFunction one, by presence of
// the "method" field the driverFunction envelope never carries.
func looksLikeSendCommandReply(raw []byte) bool {
	var probe struct {
		Method *string `json:"method"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Method != nil
}
