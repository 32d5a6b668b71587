package worker

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"time"

	"github.com/andresmejia3/emojify/internal/types"
	"github.com/andresmejia3/emojify/internal/utils" // Using the SafeCommand wrapper
)

// ErrTimeout is returned when the detector does not answer within ReadTimeout.
var ErrTimeout = errors.New("detector timed out")

// Config describes how to launch the detector process.
type Config struct {
	Python      string
	Script      string
	ReadTimeout time.Duration
}

type result struct {
	faces []types.FaceObservation
	err   error
}

// PythonDetector talks to one long-lived detector process. It is not safe for
// concurrent use; run one per engine.
type PythonDetector struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser
	Timeout  time.Duration
}

func NewPythonDetector(ctx context.Context, id int, cfg Config) (*PythonDetector, error) {
	py := utils.NewSafeCommand(ctx, cfg.Python, "-u", cfg.Script)

	// Side-channel pipe (FD 3) keeps the payload apart from anything the
	// script prints.
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("detector %d failed to start: %w", id, err)
	}

	// Only the child holds the write end now.
	w.Close()

	return &PythonDetector{
		ID:       id,
		Cmd:      py,
		Stdin:    stdin,
		DataPipe: r,
		Timeout:  cfg.ReadTimeout,
	}, nil
}

// Detect encodes img as JPEG and runs it through the process. On timeout or
// cancellation the process is killed, since the pipe is left mid-message.
func (d *PythonDetector) Detect(ctx context.Context, img image.Image) ([]types.FaceObservation, error) {
	frame, err := utils.EncodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		faces, err := d.ProcessFrame(frame)
		done <- result{faces, err}
	}()

	select {
	case res := <-done:
		return res.faces, res.err
	case <-ctx.Done():
		d.kill()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("detector %d: %w", d.ID, ErrTimeout)
		}
		return nil, ctx.Err()
	}
}

// ProcessFrame sends one encoded frame and decodes the reply.
//
// Request:  [uint32 len][frame]
// Response: [uint32 len][status]
//
//	status 0: [uint32 n] then n × 7 float32 (x, y, w, h, smiling, left eye, right eye)
//	status 1: [uint32 msglen][msg]
func (d *PythonDetector) ProcessFrame(frame []byte) ([]types.FaceObservation, error) {
	if err := binary.Write(d.Stdin, binary.BigEndian, uint32(len(frame))); err != nil {
		return nil, err
	}
	if _, err := d.Stdin.Write(frame); err != nil {
		return nil, err
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(d.DataPipe, header); err != nil {
		return nil, err // a crashed script shows up here as EOF
	}
	body := make([]byte, binary.BigEndian.Uint32(header))
	if _, err := io.ReadFull(d.DataPipe, body); err != nil {
		return nil, err
	}

	return decodeResponse(body)
}

func decodeResponse(body []byte) ([]types.FaceObservation, error) {
	r := bytes.NewReader(body)
	status, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("empty response from detector")
	}

	switch status {
	case 0:
	case 1:
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return nil, fmt.Errorf("failed to read error length: %w", err)
		}
		msg := make([]byte, n)
		if _, err := io.ReadFull(r, msg); err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		return nil, fmt.Errorf("python worker error: %s", msg)
	default:
		return nil, fmt.Errorf("unknown detector status %d", status)
	}

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read face count: %w", err)
	}
	// 28 bytes per face; reject counts the payload cannot hold before allocating.
	if uint64(count)*28 > uint64(r.Len()) {
		return nil, fmt.Errorf("face count %d exceeds payload", count)
	}

	faces := make([]types.FaceObservation, 0, count)
	for i := uint32(0); i < count; i++ {
		var v [7]float32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, fmt.Errorf("failed to read face %d: %w", i, err)
		}
		faces = append(faces, types.FaceObservation{
			X:                       f64(v[0]),
			Y:                       f64(v[1]),
			Width:                   f64(v[2]),
			Height:                  f64(v[3]),
			SmilingProbability:      f64(v[4]),
			LeftEyeOpenProbability:  f64(v[5]),
			RightEyeOpenProbability: f64(v[6]),
		})
	}
	return faces, nil
}

// f64 widens without picking up float32 noise in the low digits, so 0.5
// stays 0.5 and 0.4 stays 0.4.
func f64(v float32) float64 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return float64(v)
	}
	f := float64(v)
	return math.Round(f*1e6) / 1e6
}

func (d *PythonDetector) kill() {
	if d.Cmd != nil && d.Cmd.Process != nil {
		d.Cmd.Process.Kill()
	}
}

// Close shuts the pipes and waits for the process to exit.
func (d *PythonDetector) Close() error {
	d.Stdin.Close()
	d.DataPipe.Close()
	if d.Cmd == nil {
		return nil
	}
	return d.Cmd.Wait()
}
