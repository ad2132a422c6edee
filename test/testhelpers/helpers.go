// Package testhelpers provides common utilities and helper functions for testing the Roomcast server.
//
// This package contains reusable test utilities that are shared across unit and integration tests.
// It provides functions for creating test servers, making HTTP requests, exchanging protocol
// events over WebSocket connections, and asserting on received frames to reduce code
// duplication in test files.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mpetrow/roomcast/internal/server"
)

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
// It fails the test with a descriptive error message if the status codes don't match.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
// It fails the test with a descriptive error message if the content types don't match.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ConnectWebSocket creates a WebSocket connection to the specified URL.
// It returns the connection or an error if connection fails.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	return ConnectWebSocketWithOrigin(url, "http://localhost:8080")
}

// ConnectWebSocketWithOrigin creates a WebSocket connection carrying the
// given Origin header.
func ConnectWebSocketWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendEvent sends an inbound event frame over the WebSocket connection.
func SendEvent(conn *websocket.Conn, ev server.InboundEvent) error {
	return conn.WriteJSON(ev)
}

// JoinRoom sends an enterRoom event.
func JoinRoom(conn *websocket.Conn, name, room string) error {
	return SendEvent(conn, server.InboundEvent{Event: server.EventEnterRoom, Name: name, Room: room})
}

// SendChat sends a chat message event.
func SendChat(conn *websocket.Conn, name, text string) error {
	return SendEvent(conn, server.InboundEvent{Event: server.EventMessage, Name: name, Text: text})
}

// SendActivity sends a typing-activity event.
func SendActivity(conn *websocket.Conn, name string) error {
	return SendEvent(conn, server.InboundEvent{Event: server.EventActivity, Name: name})
}

// Frame is one received outbound event with its payload left raw so callers
// can decode it per event kind.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// connReader owns all websocket-level reads for one connection. A read
// deadline expiry permanently fails a gorilla/websocket connection, so the
// helpers funnel reads through a single background goroutine and apply
// timeouts while waiting on the frame channel instead of on the connection.
type connReader struct {
	frames chan Frame
	done   chan struct{}
	err    error // written once by run before done closes
}

var (
	readersMu sync.Mutex
	readers   = map[*websocket.Conn]*connReader{}
)

// readerFor returns the background reader for conn, starting one on first use.
func readerFor(conn *websocket.Conn) *connReader {
	readersMu.Lock()
	defer readersMu.Unlock()
	if r, ok := readers[conn]; ok {
		return r
	}
	r := &connReader{
		frames: make(chan Frame, 1024),
		done:   make(chan struct{}),
	}
	readers[conn] = r
	go r.run(conn)
	return r
}

// run reads messages until the connection fails and splits each one into
// event frames. The server's write pump batches queued frames into one
// message with newline separators, so one read may yield several frames.
func (r *connReader) run(conn *websocket.Conn) {
	defer close(r.done)
	// Clear any deadline set before the reader took over the connection.
	_ = conn.SetReadDeadline(time.Time{})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			r.err = err
			return
		}
		for _, part := range strings.Split(string(data), "\n") {
			if part == "" {
				continue
			}
			var frame Frame
			if err := json.Unmarshal([]byte(part), &frame); err != nil {
				r.err = err
				return
			}
			r.frames <- frame
		}
	}
}

// drain returns every frame already buffered without blocking.
func (r *connReader) drain() []Frame {
	var frames []Frame
	for {
		select {
		case frame := <-r.frames:
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

// timeoutError mirrors a read-deadline expiry for callers that distinguish a
// timeout from a connection close.
type timeoutError struct{}

func (timeoutError) Error() string   { return "testhelpers: read timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// ReadFrames returns the next batch of event frames received on the
// connection, waiting up to timeout for at least one frame to arrive. It
// returns a timeout error when none arrives in time, or the connection's
// read error once the connection has failed.
func ReadFrames(conn *websocket.Conn, timeout time.Duration) ([]Frame, error) {
	r := readerFor(conn)

	if frames := r.drain(); len(frames) > 0 {
		return frames, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame := <-r.frames:
		return append([]Frame{frame}, r.drain()...), nil
	case <-r.done:
		if frames := r.drain(); len(frames) > 0 {
			return frames, nil
		}
		return nil, r.err
	case <-timer.C:
		return nil, timeoutError{}
	}
}

// CollectFrames keeps reading until the timeout elapses and returns every
// frame received in the meantime.
func CollectFrames(conn *websocket.Conn, timeout time.Duration) []Frame {
	deadline := time.Now().Add(timeout)
	var collected []Frame
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return collected
		}
		frames, err := ReadFrames(conn, remaining)
		collected = append(collected, frames...)
		if err != nil {
			return collected
		}
	}
}

// WaitForFrame reads frames until one matches the given event name or the
// timeout elapses. The second return value reports whether a match arrived.
func WaitForFrame(conn *websocket.Conn, event string, timeout time.Duration) (Frame, bool) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Frame{}, false
		}
		frames, err := ReadFrames(conn, remaining)
		for _, frame := range frames {
			if frame.Event == event {
				return frame, true
			}
		}
		if err != nil {
			return Frame{}, false
		}
	}
}

// WaitForEnvelopeText reads message frames until one carries the given text.
func WaitForEnvelopeText(t *testing.T, conn *websocket.Conn, text string, timeout time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		frames, err := ReadFrames(conn, remaining)
		for _, frame := range frames {
			if frame.Event != server.EventMessage {
				continue
			}
			if DecodeEnvelope(t, frame).Text == text {
				return true
			}
		}
		if err != nil {
			return false
		}
	}
}

// DecodeEnvelope decodes a message frame's payload.
func DecodeEnvelope(t *testing.T, frame Frame) server.Envelope {
	t.Helper()
	var envelope server.Envelope
	if err := json.Unmarshal(frame.Payload, &envelope); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	return envelope
}

// DecodeUserList decodes a userList frame's payload.
func DecodeUserList(t *testing.T, frame Frame) server.UserListPayload {
	t.Helper()
	var payload server.UserListPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		t.Fatalf("Failed to decode userList: %v", err)
	}
	return payload
}

// DecodeRoomList decodes a roomList frame's payload.
func DecodeRoomList(t *testing.T, frame Frame) server.RoomListPayload {
	t.Helper()
	var payload server.RoomListPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		t.Fatalf("Failed to decode roomList: %v", err)
	}
	return payload
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
