package ws

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestComputeAccept(t *testing.T) {
	// Known vector from RFC 6455 section 1.3.
	got := ComputeAccept("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("accept mismatch: got %q want %q", got, want)
	}
}

func pipeConn() (*Conn, net.Conn) {
	server, client := net.Pipe()
	c := &Conn{conn: server, r: bufio.NewReader(server), w: bufio.NewWriter(server)}
	return c, client
}

// readServerFrame parses one unmasked frame as a client would receive it.
func readServerFrame(t *testing.T, r *bufio.Reader) (byte, []byte) {
	t.Helper()
	first, err := r.ReadByte()
	if err != nil {
		t.Fatalf("read frame header: %v", err)
	}
	if first&0x80 == 0 {
		t.Fatalf("server sent a fragmented frame")
	}
	opcode := first & 0x0F
	second, err := r.ReadByte()
	if err != nil {
		t.Fatalf("read frame length: %v", err)
	}
	if second&0x80 != 0 {
		t.Fatalf("server frames must not be masked")
	}
	length := int(second & 0x7F)
	switch length {
	case 126:
		var ext uint16
		if err := binary.Read(r, binary.BigEndian, &ext); err != nil {
			t.Fatalf("read extended length: %v", err)
		}
		length = int(ext)
	case 127:
		var ext uint64
		if err := binary.Read(r, binary.BigEndian, &ext); err != nil {
			t.Fatalf("read extended length: %v", err)
		}
		length = int(ext)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return opcode, payload
}

// writeClientFrame writes one masked frame the way browsers do.
func writeClientFrame(t *testing.T, w net.Conn, opcode byte, payload []byte) {
	t.Helper()
	header := []byte{0x80 | opcode}
	length := len(payload)
	switch {
	case length <= 125:
		header = append(header, 0x80|byte(length))
	case length < 65536:
		header = append(header, 0x80|126)
		header = binary.BigEndian.AppendUint16(header, uint16(length))
	default:
		header = append(header, 0x80|127)
		header = binary.BigEndian.AppendUint64(header, uint64(length))
	}
	mask := [4]byte{0x12, 0x34, 0x56, 0x78}
	header = append(header, mask[:]...)
	masked := make([]byte, length)
	for i := range payload {
		masked[i] = payload[i] ^ mask[i%4]
	}
	if _, err := w.Write(append(header, masked...)); err != nil {
		t.Fatalf("write client frame: %v", err)
	}
}

func TestSendWritesEnvelope(t *testing.T) {
	c, client := pipeConn()
	defer client.Close()
	defer c.conn.Close()

	done := make(chan error, 1)
	go func() {
		done <- c.Send("newMessage", map[string]string{"text": "hello"})
	}()

	opcode, payload := readServerFrame(t, bufio.NewReader(client))
	if opcode != opText {
		t.Fatalf("expected text frame, got opcode %#x", opcode)
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("payload is not an envelope: %v", err)
	}
	if env.Event != "newMessage" {
		t.Fatalf("unexpected event %q", env.Event)
	}
	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("envelope data: %v", err)
	}
	if data["text"] != "hello" {
		t.Fatalf("unexpected data %v", data)
	}
	if err := <-done; err != nil {
		t.Fatalf("send returned error: %v", err)
	}
}

func TestSendLargePayloadUsesExtendedLength(t *testing.T) {
	c, client := pipeConn()
	defer client.Close()
	defer c.conn.Close()

	big := strings.Repeat("a", 300)
	done := make(chan error, 1)
	go func() {
		done <- c.Send("getOnlineUsers", []string{big})
	}()

	opcode, payload := readServerFrame(t, bufio.NewReader(client))
	if opcode != opText {
		t.Fatalf("expected text frame, got opcode %#x", opcode)
	}
	if len(payload) <= 125 {
		t.Fatalf("expected an extended-length frame, got %d bytes", len(payload))
	}
	if err := <-done; err != nil {
		t.Fatalf("send returned error: %v", err)
	}
}

func TestReadLoopAnswersPingAndStopsOnClose(t *testing.T) {
	c, client := pipeConn()
	defer client.Close()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- c.ReadLoop()
	}()

	reader := bufio.NewReader(client)
	writeClientFrame(t, client, opPing, []byte("ka"))
	opcode, payload := readServerFrame(t, reader)
	if opcode != opPong {
		t.Fatalf("expected pong, got opcode %#x", opcode)
	}
	if string(payload) != "ka" {
		t.Fatalf("pong must echo the ping payload, got %q", payload)
	}

	writeClientFrame(t, client, opClose, nil)
	select {
	case err := <-loopDone:
		if err != nil {
			t.Fatalf("read loop returned error on clean close: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("read loop did not stop after close frame")
	}
}

func TestReadLoopReturnsErrorWhenPeerVanishes(t *testing.T) {
	c, client := pipeConn()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- c.ReadLoop()
	}()

	client.Close()
	select {
	case err := <-loopDone:
		if err == nil {
			t.Fatalf("expected an error after abrupt disconnect")
		}
	case <-time.After(time.Second):
		t.Fatalf("read loop did not notice the dead peer")
	}
}

func TestReadFrameRejectsOversizedFrame(t *testing.T) {
	c, client := pipeConn()
	defer client.Close()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- c.ReadLoop()
	}()

	// Header only: masked text frame claiming far more than the cap.
	header := []byte{0x80 | opText, 0x80 | 127}
	header = binary.BigEndian.AppendUint64(header, maxFrameSize+1)
	if _, err := client.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}

	select {
	case err := <-loopDone:
		if err == nil {
			t.Fatalf("oversized frame was accepted")
		}
	case <-time.After(time.Second):
		t.Fatalf("read loop did not reject the oversized frame")
	}
}

func TestAcceptHandshake(t *testing.T) {
	upgraded := make(chan *Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Accept(w, r)
		if err != nil {
			return
		}
		upgraded <- c
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	key := "dGhlIHNhbXBsZSBub25jZQ=="
	req := "GET /ws HTTP/1.1\r\nHost: " + addr + "\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: " + key + "\r\nSec-WebSocket-Version: 13\r\n\r\n"
	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("write handshake: %v", err)
	}

	reader := bufio.NewReader(conn)
	status, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.Contains(status, "101") {
		t.Fatalf("expected 101 response, got %q", status)
	}
	accept := ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Sec-WebSocket-Accept: "); ok {
			accept = v
		}
	}
	if accept != ComputeAccept(key) {
		t.Fatalf("accept header mismatch: %q", accept)
	}

	select {
	case c := <-upgraded:
		c.Close()
	case <-time.After(time.Second):
		t.Fatalf("handler never produced an upgraded connection")
	}
}

func TestAcceptRejectsPlainRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if _, err := Accept(rec, req); err == nil {
		t.Fatalf("plain request was upgraded")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
