package executor

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aryankumar/batchrun/internal/util"
)

// MaxFrameSize is the largest frame accepted from or sent to a worker process (16 MiB).
const MaxFrameSize = 16 << 20

// workerRequest is sent from the parent to a worker process, one per item
type workerRequest struct {
	Seq  uint64          `json:"seq"`
	ID   string          `json:"id"`
	Kind string          `json:"kind"`
	Args json.RawMessage `json:"args,omitempty"`

	// Deadline is the parent's context deadline, if any
	Deadline *time.Time `json:"deadline,omitempty"`
}

// workerResponse is the worker's answer to one workerRequest
type workerResponse struct {
	Seq        uint64          `json:"seq"`
	Value      json.RawMessage `json:"value,omitempty"`
	Error      string          `json:"error,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	DurationNs int64           `json:"duration_ns"`
}

// errorCodes maps the sentinels that survive a process boundary to their wire
// codes. Order matters: the first match wins.
var errorCodes = []struct {
	code     string
	sentinel error
}{
	{"timeout", util.ErrTimeout},
	{"deadline_exceeded", context.DeadlineExceeded},
	{"cancelled", context.Canceled},
	{"invalid_config", util.ErrInvalidConfig},
	{"unknown_payload", util.ErrUnknownPayload},
	{"not_serializable", util.ErrPayloadNotSerializable},
}

// errorCode returns the wire code for err, or "" when no sentinel matches
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.sentinel) {
			return ec.code
		}
	}
	return ""
}

// remoteError is a payload error reported by a worker process. It keeps the
// worker's message and unwraps to the sentinel named by its code.
type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.sentinel }

// decodeError rebuilds the error carried by resp
func decodeError(resp workerResponse) error {
	for _, ec := range errorCodes {
		if ec.code == resp.ErrorCode {
			return &remoteError{msg: resp.Error, sentinel: ec.sentinel}
		}
	}
	return errors.New(resp.Error)
}

// writeFrame writes a length-prefixed JSON message to w.
// The frame format is: 4-byte big-endian length prefix followed by the JSON payload.
func writeFrame(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if len(data) > MaxFrameSize {
		return fmt.Errorf("frame size %d exceeds maximum %d", len(data), MaxFrameSize)
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// readFrame reads a length-prefixed JSON message from r and decodes it into v.
// A clean end of stream before the prefix is reported as io.EOF.
func readFrame(r io.Reader, v any) error {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("read length prefix: %w", err)
	}

	if length > MaxFrameSize {
		return fmt.Errorf("frame size %d exceeds maximum %d", length, MaxFrameSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal frame: %w", err)
	}
	return nil
}
