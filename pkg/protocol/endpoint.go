package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/xolox/negotiator/internal/errx"
)

// Dispatcher exposes the local methods a serving endpoint offers its peer.
// Implementations exist once for the host side and once for the guest side;
// nothing is dispatched reflectively.
type Dispatcher interface {
	Methods() []string
	Invoke(ctx context.Context, name string, args []any, kwargs map[string]any) (any, error)
}

// Endpoint wraps one byte stream and implements both halves of the RPC
// protocol. The protocol is strictly request/response: at most one call is
// in flight per direction, and an Endpoint is not safe for concurrent Call.
type Endpoint struct {
	framer   *Framer
	conn     io.Closer
	label    string
	poisoned atomic.Bool
}

// NewEndpoint wraps conn. The label names the transport in logs and errors.
func NewEndpoint(conn io.ReadWriteCloser, label string) *Endpoint {
	return &Endpoint{framer: NewFramer(conn, conn, label), conn: conn, label: label}
}

func (e *Endpoint) Close() error { return e.conn.Close() }

// Call invokes a method on the remote side and waits for its response.
// Cancelling ctx interrupts the blocking read, but the response may still be
// in flight afterwards, so the endpoint is poisoned: further calls fail with
// ErrEndpointPoisoned and the caller must open a fresh endpoint.
func (e *Endpoint) Call(ctx context.Context, method string, args []any, kwargs map[string]any) (any, error) {
	if e.poisoned.Load() {
		return nil, errx.With(ErrEndpointPoisoned, ": %s", e.label)
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	slog.Debug("calling remote method", "method", method, "on", e.label)
	if err := e.framer.WriteFrame(Request{Method: method, Args: args, Kwargs: kwargs}); err != nil {
		return nil, err
	}

	type readResult struct {
		raw json.RawMessage
		err error
	}
	ch := make(chan readResult, 1)
	go func() {
		raw, err := e.framer.ReadFrame()
		ch <- readResult{raw, err}
	}()

	select {
	case <-ctx.Done():
		e.poisoned.Store(true)
		e.conn.Close()
		return nil, errx.Wrap(ErrCallTimedOut, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		var resp Response
		if err := json.Unmarshal(res.raw, &resp); err != nil {
			return nil, errx.With(ErrProtocol, ": malformed response: %w", err)
		}
		if !resp.Success {
			return nil, errx.With(ErrRemoteMethod, ": %s", resp.Error)
		}
		return resp.Result, nil
	}
}

// Serve answers requests from the remote side until the transport closes,
// ctx is cancelled, or the peer violates the protocol. A failing dispatched
// method is converted into a success=false response and the loop continues;
// only framing violations and transport errors are fatal.
func (e *Endpoint) Serve(ctx context.Context, d Dispatcher) error {
	stop := context.AfterFunc(ctx, func() { e.conn.Close() })
	defer stop()

	exposed := make(map[string]struct{})
	for _, name := range d.Methods() {
		exposed[name] = struct{}{}
	}

	for {
		raw, err := e.framer.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				slog.Debug("remote side hung up", "on", e.label)
				return nil
			}
			return err
		}
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return errx.With(ErrProtocol, ": malformed request: %w", err)
		}

		name := req.Method
		if _, ok := exposed[name]; !ok || name == "" || strings.HasPrefix(name, "_") {
			slog.Warn("remote tried to call unsupported method", "method", name)
			if err := e.framer.WriteFrame(Response{
				Success: false,
				Error:   fmt.Sprintf("Method %s not supported", name),
			}); err != nil {
				return err
			}
			continue
		}

		slog.Info("remote is calling local method", "method", name)
		resp := Response{Success: true}
		result, err := d.Invoke(ctx, name, req.Args, req.Kwargs)
		if err != nil {
			slog.Warn("local method call failed", "method", name, "error", err)
			resp = Response{Success: false, Error: err.Error()}
		} else {
			slog.Debug("local method call succeeded", "method", name)
			resp.Result = result
		}
		if err := e.framer.WriteFrame(resp); err != nil {
			return err
		}
	}
}
