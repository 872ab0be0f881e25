package tradingview

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	frameMarker     = "~m~"
	heartbeatMarker = "~h~"
)

type outbound struct {
	Method string        `json:"m"`
	Params []interface{} `json:"p"`
}

type inbound struct {
	Method string            `json:"m"`
	Params []json.RawMessage `json:"p"`
}

// encodeFrame wraps a payload as ~m~<len>~m~<payload>.
func encodeFrame(payload string) string {
	return frameMarker + strconv.Itoa(len(payload)) + frameMarker + payload
}

func encodePacket(method string, params ...interface{}) (string, error) {
	if params == nil {
		params = []interface{}{}
	}
	b, err := json.Marshal(outbound{Method: method, Params: params})
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", method, err)
	}
	return encodeFrame(string(b)), nil
}

// parseFrames splits one websocket message into its frame payloads.
func parseFrames(msg string) ([]string, error) {
	var payloads []string
	for len(msg) > 0 {
		if !strings.HasPrefix(msg, frameMarker) {
			return payloads, fmt.Errorf("malformed frame at %q", clip(msg))
		}
		rest := msg[len(frameMarker):]
		end := strings.Index(rest, frameMarker)
		if end < 0 {
			return payloads, fmt.Errorf("unterminated frame length at %q", clip(msg))
		}
		n, err := strconv.Atoi(rest[:end])
		if err != nil || n < 0 {
			return payloads, fmt.Errorf("invalid frame length %q", rest[:end])
		}
		rest = rest[end+len(frameMarker):]
		if n > len(rest) {
			return payloads, fmt.Errorf("frame length %d exceeds remaining %d bytes", n, len(rest))
		}
		payloads = append(payloads, rest[:n])
		msg = rest[n:]
	}
	return payloads, nil
}

func isHeartbeat(payload string) bool {
	return strings.HasPrefix(payload, heartbeatMarker)
}

// errorText flattens the string params of an error packet, skipping the chart id.
func errorText(method string, params []json.RawMessage) string {
	parts := []string{method}
	for i, raw := range params {
		if i == 0 && method != "protocol_error" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ": ")
}

func clip(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
