package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFrameEncoding(t *testing.T) {
	var buf bytes.Buffer
	framer := NewFramer(strings.NewReader(""), &buf, "test buffer")

	require.NoError(t, framer.WriteFrame(Request{
		Method: "ping",
		Args:   []any{},
		Kwargs: map[string]any{},
	}))

	payload := `{"method":"ping","args":[],"kw":{}}`
	expected := strconv.Itoa(len(payload)) + "\n" + payload
	require.Equal(t, expected, buf.String())
}

func TestWriteFrameNilResultStaysOnTheWire(t *testing.T) {
	var buf bytes.Buffer
	framer := NewFramer(strings.NewReader(""), &buf, "test buffer")

	require.NoError(t, framer.WriteFrame(Response{Success: true}))
	require.Equal(t, "30\n{\"success\":true,\"result\":null}", buf.String())
}

func TestReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer := NewFramer(strings.NewReader(""), &buf, "writer")
	require.NoError(t, writer.WriteFrame(Response{Success: true, Result: "pong"}))

	reader := NewFramer(&buf, io.Discard, "reader")
	raw, err := reader.ReadFrame()
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.True(t, resp.Success)
	require.Equal(t, "pong", resp.Result)
}

func TestReadFrameSkipsEmptyLines(t *testing.T) {
	input := "\n\n2\n{}"
	framer := NewFramer(strings.NewReader(input), io.Discard, "reader")

	raw, err := framer.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, json.RawMessage("{}"), raw)
}

func TestReadFrameRejectsNonNumericHeader(t *testing.T) {
	framer := NewFramer(strings.NewReader("abc\n{}"), io.Discard, "reader")

	_, err := framer.ReadFrame()
	require.ErrorIs(t, err, ErrProtocol)
	require.Contains(t, err.Error(), `"abc"`)
}

func TestReadFrameRejectsSignedHeader(t *testing.T) {
	framer := NewFramer(strings.NewReader("+2\n{}"), io.Discard, "reader")

	_, err := framer.ReadFrame()
	require.ErrorIs(t, err, ErrProtocol)
}

func TestReadFrameRejectsInvalidJSON(t *testing.T) {
	framer := NewFramer(strings.NewReader("5\nnotjs"), io.Discard, "reader")

	_, err := framer.ReadFrame()
	require.ErrorIs(t, err, ErrProtocol)
	require.Contains(t, err.Error(), "notjs")
}

func TestReadFrameRejectsOversizedByteCount(t *testing.T) {
	framer := NewFramer(strings.NewReader("99999999999\n{}"), io.Discard, "reader")

	_, err := framer.ReadFrame()
	require.ErrorIs(t, err, ErrProtocol)
	require.Contains(t, err.Error(), "99999999999")
}

func TestReadFrameShortPayload(t *testing.T) {
	framer := NewFramer(strings.NewReader("10\n{}"), io.Discard, "reader")

	_, err := framer.ReadFrame()
	require.ErrorIs(t, err, ErrProtocol)
}

func TestReadFrameEOFOnCleanStream(t *testing.T) {
	framer := NewFramer(strings.NewReader(""), io.Discard, "reader")

	_, err := framer.ReadFrame()
	require.ErrorIs(t, err, io.EOF)
}

func TestRequestDefaultsToEmptyCollections(t *testing.T) {
	// A request without args or kw is treated as if both were empty.
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"method":"list_commands"}`), &req))
	require.Equal(t, "list_commands", req.Method)
	require.Empty(t, req.Args)
	require.Empty(t, req.Kwargs)
}
