package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xolox/negotiator/internal/errx"
)

// maxPayloadBytes bounds the payload allocation for a single frame. Real
// frames are tiny (requests and captured script output); a count anywhere
// near this is a corrupt or hostile header, not a message.
const maxPayloadBytes = 16 << 20

// Framer reads and writes length-prefixed JSON frames. Each frame is the
// decimal byte count of the payload in ASCII, a newline, then exactly that
// many payload bytes with no trailing delimiter.
type Framer struct {
	r     *bufio.Reader
	w     io.Writer
	label string
}

// NewFramer wraps a byte stream. The label names the stream in debug logs
// (e.g. "UNIX socket /path" or "character device /dev/vport0p1").
func NewFramer(r io.Reader, w io.Writer, label string) *Framer {
	return &Framer{r: bufio.NewReader(r), w: w, label: label}
}

// ReadFrame blocks until a complete frame arrives and returns the raw JSON
// payload. Empty byte-count lines are skipped: a transport that is not yet
// connected may surface them, and blocking between attempts is the
// transport's job. A non-numeric byte count or an invalid JSON payload is a
// protocol violation, fatal to the stream.
func (f *Framer) ReadFrame() (json.RawMessage, error) {
	for {
		line, err := f.r.ReadString('\n')
		header := strings.TrimSpace(line)
		if err != nil {
			if header == "" {
				return nil, err
			}
			// A partial header at EOF is still a malformed frame.
			if err != io.EOF {
				return nil, err
			}
		}
		if header == "" {
			continue
		}
		count, convErr := parseByteCount(header)
		if convErr != nil {
			return nil, errx.With(ErrProtocol,
				": expected a byte count but received the line %q", header)
		}
		if count > maxPayloadBytes {
			return nil, errx.With(ErrProtocol,
				": refusing to read a frame of %d bytes", count)
		}
		slog.Debug("reading frame payload", "bytes", count, "from", f.label)
		payload := make([]byte, count)
		if _, err := io.ReadFull(f.r, payload); err != nil {
			return nil, errx.With(ErrProtocol, ": short payload read: %w", err)
		}
		var probe any
		if err := json.Unmarshal(payload, &probe); err != nil {
			return nil, errx.With(ErrProtocol,
				": failed to decode payload %q as JSON: %w", payload, err)
		}
		return json.RawMessage(payload), nil
	}
}

// WriteFrame encodes v as JSON and writes the header and payload as one
// coalesced write so the frame appears as a single logical message.
func (f *Framer) WriteFrame(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errx.Wrap(ErrEncodeFrame, err)
	}
	var buf bytes.Buffer
	buf.Grow(len(payload) + 12)
	buf.WriteString(strconv.Itoa(len(payload)))
	buf.WriteByte('\n')
	buf.Write(payload)
	slog.Debug("writing frame", "bytes", len(payload), "to", f.label)
	if _, err := f.w.Write(buf.Bytes()); err != nil {
		return errx.Wrap(ErrWriteFrame, err)
	}
	return nil
}

// parseByteCount accepts only unsigned decimal digit strings, rejecting the
// signs and whitespace strconv.Atoi would tolerate.
func parseByteCount(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
