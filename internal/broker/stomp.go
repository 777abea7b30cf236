// Package broker implements the STOMP-over-WebSocket client that feeds
// the indexing service with accession numbers to (re)index whenever the
// submission update exchange publishes a message. This is an
// interface-level client: enough frame parsing to pull an accession
// number out of a MESSAGE frame body and dispatch it, not a complete
// STOMP 1.2 implementation.
package broker

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// frame is a minimal STOMP frame: a command line, header lines, and a
// NUL-terminated body.
type frame struct {
	command string
	headers map[string]string
	body    []byte
}

func encodeFrame(f frame) []byte {
	var buf bytes.Buffer
	buf.WriteString(f.command)
	buf.WriteByte('\n')
	for k, v := range f.headers {
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(v)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.body)
	buf.WriteByte(0)
	return buf.Bytes()
}

func connectFrame(host, login, passcode string) []byte {
	return encodeFrame(frame{
		command: "CONNECT",
		headers: map[string]string{
			"accept-version": "1.2",
			"host":           host,
			"login":          login,
			"passcode":       passcode,
		},
	})
}

func subscribeFrame(id int, destination string) []byte {
	return encodeFrame(frame{
		command: "SUBSCRIBE",
		headers: map[string]string{
			"id":          strconv.Itoa(id),
			"destination": destination,
			"ack":         "auto",
		},
	})
}

// decodeFrame parses a single raw STOMP frame (as delivered by one
// WebSocket text message). It does not handle multiple frames sharing
// one WebSocket message, which this broker's peers never send.
func decodeFrame(raw []byte) (frame, error) {
	raw = bytes.TrimRight(raw, "\x00")
	lines := bytes.SplitN(raw, []byte("\n\n"), 2)
	if len(lines) != 2 {
		return frame{}, fmt.Errorf("broker: malformed frame: no header/body separator")
	}
	headerLines := strings.Split(string(lines[0]), "\n")
	if len(headerLines) == 0 {
		return frame{}, fmt.Errorf("broker: malformed frame: no command line")
	}
	f := frame{
		command: strings.TrimSpace(headerLines[0]),
		headers: make(map[string]string, len(headerLines)-1),
		body:    lines[1],
	}
	for _, h := range headerLines[1:] {
		if h == "" {
			continue
		}
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			continue
		}
		f.headers[parts[0]] = parts[1]
	}
	return f, nil
}
