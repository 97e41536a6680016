package solana

import (
	"encoding/base64"
	"fmt"
)

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsNotification struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  *wsLogsParams `json:"params"`
}

type wsLogsParams struct {
	Subscription int64        `json:"subscription"`
	Result       wsLogsResult `json:"result"`
}

type wsLogsResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}

type wsProgramNotification struct {
	JSONRPC string           `json:"jsonrpc"`
	Method  string           `json:"method"`
	Params  *wsProgramParams `json:"params"`
}

type wsProgramParams struct {
	Subscription int64           `json:"subscription"`
	Result       wsProgramResult `json:"result"`
}

type wsProgramResult struct {
	Context *wsContext     `json:"context"`
	Value   wsProgramValue `json:"value"`
}

type wsProgramValue struct {
	Pubkey  string           `json:"pubkey"`
	Account wsProgramAccount `json:"account"`
}

type wsProgramAccount struct {
	Data  accountData `json:"data"`
	Owner string      `json:"owner"`
}

// accountData is the [payload, encoding] tuple the RPC uses for raw account
// bytes.
type accountData [2]string

func (d accountData) decode() ([]byte, error) {
	if d[1] != "base64" {
		return nil, fmt.Errorf("unexpected account encoding %q", d[1])
	}
	raw, err := base64.StdEncoding.DecodeString(d[0])
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return raw, nil
}
