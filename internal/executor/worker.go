package executor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/aryankumar/batchrun/internal/util"
)

// ServeWorker is the child side of the Processes strategy. It reads request
// frames from r, runs each through reg and writes one response frame to w,
// until r reaches end of stream. Payload errors and panics are reported in
// the response; only stream errors end the loop with an error.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer, reg *Registry) error {
	in := bufio.NewReader(r)
	out := bufio.NewWriter(w)

	for {
		var req workerRequest
		if err := readFrame(in, &req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		resp := serveOne(ctx, reg, req)

		if err := writeFrame(out, resp); err != nil {
			return fmt.Errorf("write response for %q: %w", req.ID, err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flush response for %q: %w", req.ID, err)
		}
	}
}

func serveOne(ctx context.Context, reg *Registry, req workerRequest) workerResponse {
	startedAt := time.Now()

	if req.Deadline != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, *req.Deadline)
		defer cancel()
	}

	var (
		value any
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() {
		value, err = reg.Call(ctx, PayloadSpec{Kind: req.Kind, Args: req.Args})
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}

	resp := workerResponse{
		Seq:        req.Seq,
		StartedAt:  startedAt,
		DurationNs: int64(time.Since(startedAt)),
	}
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorCode = errorCode(err)
		return resp
	}

	if value != nil {
		raw, mErr := json.Marshal(value)
		if mErr != nil {
			resp.Error = fmt.Sprintf("%v: marshal value: %v", util.ErrPayloadNotSerializable, mErr)
			resp.ErrorCode = errorCode(util.ErrPayloadNotSerializable)
			return resp
		}
		resp.Value = raw
	}
	return resp
}
