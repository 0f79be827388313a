package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LineDecoder reads codes from barcode readers that present themselves as
// a character device or FIFO and emit one decoded code per line (serial or
// keyboard-wedge readers). The reader hardware does the decoding.
type LineDecoder struct {
	devices []Device

	mu  sync.Mutex
	run *lineRun
}

// lineRun is one capture: an open device and the goroutine reading it.
type lineRun struct {
	f          *os.File
	done       chan struct{}
	stopping   atomic.Bool
	inCallback atomic.Bool
}

// ParseDevices reads "label=path" pairs separated by commas. An entry
// without "=" uses the path as its label.
func ParseDevices(list string) []Device {
	out := make([]Device, 0)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, path, ok := strings.Cut(part, "=")
		if !ok {
			path = label
		}
		label, path = strings.TrimSpace(label), strings.TrimSpace(path)
		if path == "" {
			continue
		}
		out = append(out, Device{ID: path, Label: label})
	}
	return out
}

func NewLineDecoder(devices []Device) *LineDecoder {
	return &LineDecoder{devices: devices}
}

// ListDevices returns the configured devices that currently exist.
func (d *LineDecoder) ListDevices(ctx context.Context) ([]Device, error) {
	out := make([]Device, 0, len(d.devices))
	for _, dev := range d.devices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(dev.ID); err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, dev.ID)
			}
			continue
		}
		out = append(out, dev)
	}
	return out, nil
}

func (d *LineDecoder) DecodeFrom(ctx context.Context, deviceID string, onResult func(string), onError func(error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.run != nil {
		return fmt.Errorf("%w: %s already capturing", ErrCameraUnavailable, d.run.f.Name())
	}

	f, err := os.Open(deviceID)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: %w", ErrNoDevice, err)
		default:
			return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
		}
	}

	run := &lineRun{f: f, done: make(chan struct{})}
	d.run = run

	go func() {
		defer close(run.done)
		run.read(f, onResult, onError)
	}()
	return nil
}

func (r *lineRun) read(src io.Reader, onResult func(string), onError func(error)) {
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		if r.stopping.Load() {
			return
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			r.deliver(func() { onError(ErrTransientMiss) })
			continue
		}
		r.deliver(func() { onResult(text) })
	}
	if err := sc.Err(); err != nil && !r.stopping.Load() {
		r.deliver(func() { onError(fmt.Errorf("%w: %w", ErrDecodeFailure, err)) })
	}
}

func (r *lineRun) deliver(cb func()) {
	r.inCallback.Store(true)
	defer r.inCallback.Store(false)
	cb()
}

// Stop closes the device and waits for the reader to exit. It is a no-op
// when nothing is capturing. While the reader is inside a callback Stop does
// not wait, so a callback may stop its own capture; no further callbacks
// run once it returns.
func (d *LineDecoder) Stop() error {
	d.mu.Lock()
	run := d.run
	d.run = nil
	d.mu.Unlock()
	if run == nil {
		return nil
	}

	run.stopping.Store(true)
	err := run.f.Close()
	if !run.inCallback.Load() {
		<-run.done
	}
	return err
}
