package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/aryankumar/batchrun/internal/util"
)

// ProcessPool runs items in a fixed number of child processes. Each child is
// started lazily, handles one item at a time and lives until the batch ends.
// Items cross the boundary as PayloadSpec values and values come back as JSON,
// so only registry-backed items can run here.
type ProcessPool struct {
	// Command is the worker executable; it must serve ServeWorker on stdio
	Command string

	// Args are passed to Command
	Args []string

	// Env is appended to the parent's environment for each child
	Env []string

	// Limiter gates item dispatch. When nil, Execute creates one with
	// capacity equal to the requested concurrency.
	Limiter *RateLimiter

	// OnOutcome, if set, is called once per item after its outcome is stored
	OnOutcome func(Outcome)

	logger *slog.Logger
}

// NewProcessPool creates a pool spawning command with args for each worker
func NewProcessPool(command string, args []string, logger *slog.Logger) *ProcessPool {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessPool{
		Command: command,
		Args:    args,
		logger:  logger,
	}
}

// Execute dispatches items to concurrency worker processes and returns outcomes
// in submission order
func (p *ProcessPool) Execute(ctx context.Context, items []WorkItem, concurrency int) []Outcome {
	if p.logger == nil {
		p.logger = slog.Default()
	}
	limiter := p.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(concurrency, 0)
	}

	collector := NewResultCollector(items)
	if len(items) == 0 {
		return collector.Outcomes()
	}

	taskChan := make(chan indexedItem, len(items))
	for i, item := range items {
		taskChan <- indexedItem{item: item, index: i}
	}
	close(taskChan)

	workerCount := concurrency
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(items) {
		workerCount = len(items)
	}

	p.logger.Debug("starting worker processes", "count", workerCount, "command", p.Command)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.dispatch(ctx, workerID, taskChan, collector, limiter)
		}(i)
	}
	wg.Wait()

	return collector.Outcomes()
}

// dispatch feeds items to one child process, restarting it after a crash.
// Once ctx is done, the remaining items fail with its error without being sent.
func (p *ProcessPool) dispatch(ctx context.Context, workerID int, taskChan <-chan indexedItem, collector *ResultCollector, limiter *RateLimiter) {
	var proc *workerProcess
	defer func() {
		if proc != nil {
			if err := proc.close(); err != nil {
				p.logger.Warn("worker process exited with error", "worker_id", workerID, "error", err)
			}
		}
	}()

	for t := range taskChan {
		t := t
		var o Outcome
		if t.item.Spec == nil {
			o = failedOutcome(t.item.ID, time.Now(), 0, util.ErrPayloadNotSerializable)
		} else {
			limiter.Do(func() {
				if err := ctx.Err(); err != nil {
					o = failedOutcome(t.item.ID, time.Now(), 0, err)
					return
				}
				if proc == nil {
					var err error
					proc, err = p.start()
					if err != nil {
						o = failedOutcome(t.item.ID, time.Now(), 0, err)
						return
					}
					p.logger.Debug("worker process started", "worker_id", workerID, "pid", proc.cmd.Process.Pid)
				}

				var err error
				o, err = proc.call(ctx, t.item)
				if err != nil {
					p.logger.Warn("worker process failed, restarting for next item",
						"worker_id", workerID,
						"item", t.item.ID,
						"error", err)
					proc.kill()
					proc = nil
				}
			})
		}

		collector.Set(t.index, o)
		if p.OnOutcome != nil {
			p.OnOutcome(o)
		}
	}
}

func (p *ProcessPool) start() (*workerProcess, error) {
	cmd := exec.Command(p.Command, p.Args...)
	cmd.Env = append(os.Environ(), p.Env...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, util.WrapErrorf(err, "start worker process %s", p.Command)
	}

	return &workerProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// workerProcess is one running child and its pipes
type workerProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	seq    uint64
}

// call sends one item and waits for its response. A non-nil error means the
// stream is unusable; the returned outcome already records the failure.
// The child is killed if ctx ends before it answers.
func (w *workerProcess) call(ctx context.Context, item WorkItem) (Outcome, error) {
	w.seq++
	sentAt := time.Now()

	req := workerRequest{
		Seq:  w.seq,
		ID:   item.ID,
		Kind: item.Spec.Kind,
		Args: item.Spec.Args,
	}
	if deadline, ok := ctx.Deadline(); ok {
		req.Deadline = &deadline
	}

	stop := context.AfterFunc(ctx, func() {
		_ = w.cmd.Process.Kill()
	})
	defer stop()

	if err := writeFrame(w.stdin, req); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failedOutcome(item.ID, sentAt, time.Since(sentAt), ctxErr), ctxErr
		}
		err = fmt.Errorf("%w: %v", util.ErrWorkerCrashed, err)
		return failedOutcome(item.ID, sentAt, time.Since(sentAt), err), err
	}

	var resp workerResponse
	if err := readFrame(w.stdout, &resp); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failedOutcome(item.ID, sentAt, time.Since(sentAt), ctxErr), ctxErr
		}
		err = fmt.Errorf("%w: %v", util.ErrWorkerCrashed, err)
		return failedOutcome(item.ID, sentAt, time.Since(sentAt), err), err
	}
	if resp.Seq != w.seq {
		err := fmt.Errorf("%w: response sequence %d, want %d", util.ErrWorkerCrashed, resp.Seq, w.seq)
		return failedOutcome(item.ID, sentAt, time.Since(sentAt), err), err
	}

	duration := time.Duration(resp.DurationNs)
	if resp.Error != "" {
		return failedOutcome(item.ID, resp.StartedAt, duration, decodeError(resp)), nil
	}

	var value any
	if len(resp.Value) > 0 {
		var err error
		if value, err = decodeValue(resp.Value); err != nil {
			return failedOutcome(item.ID, resp.StartedAt, duration, fmt.Errorf("decode value: %w", err)), nil
		}
	}

	return Outcome{
		ID:        item.ID,
		Success:   true,
		Value:     value,
		StartedAt: resp.StartedAt,
		Duration:  duration,
	}, nil
}

// close ends the child's input stream and waits for it to exit
func (w *workerProcess) close() error {
	return util.CombineErrors(w.stdin.Close(), w.cmd.Wait())
}

// kill terminates the child without waiting for a clean exit
func (w *workerProcess) kill() {
	_ = w.stdin.Close()
	_ = w.cmd.Process.Kill()
	_ = w.cmd.Wait()
}
