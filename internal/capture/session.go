package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type State int

const (
	StateClosed State = iota
	StatePermissionPending
	StateActive
	StateError
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StatePermissionPending:
		return "permission_pending"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Device struct {
	ID    string
	Label string
}

// Decoder is the external capability that owns the device and does the
// actual decoding. DecodeFrom returns once capture has started; results and
// errors then arrive on the callbacks until Stop. Stop may be called from
// inside a callback.
type Decoder interface {
	ListDevices(ctx context.Context) ([]Device, error)
	DecodeFrom(ctx context.Context, deviceID string, onResult func(text string), onError func(err error)) error
	Stop() error
}

// Handlers are the events a caller presents to the user. Any may be nil.
type Handlers struct {
	OnDecoded         func(text string)
	OnPermissionError func(err error)
	OnDecodeError     func(err error)
}

// Session drives one Decoder through Closed, PermissionPending, Active and
// Error. At most one capture runs per Session.
type Session struct {
	decoder  Decoder
	handlers Handlers
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	err     error
	device  Device
	gen     uint64
	started bool
}

func NewSession(decoder Decoder, handlers Handlers, logger *zap.Logger) *Session {
	return &Session{decoder: decoder, handlers: handlers, logger: logger}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the error that put the session into StateError, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Device() Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Open enumerates devices, picks one and starts decoding. It can be called
// from Closed or Error; a capture left over from an earlier attempt is
// stopped first. Devices are enumerated anew on every call.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StatePermissionPending, StateActive:
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	release := s.started
	s.gen++
	gen := s.gen
	s.state = StatePermissionPending
	s.err = nil
	s.device = Device{}
	s.started = false
	s.mu.Unlock()

	if release {
		if err := s.decoder.Stop(); err != nil {
			s.logger.Warn("release previous capture", zap.Error(err))
		}
	}

	devices, err := s.decoder.ListDevices(ctx)
	if err != nil {
		return s.fail(gen, classifyStartError(err))
	}
	if len(devices) == 0 {
		return s.fail(gen, ErrNoDevice)
	}

	dev := SelectDevice(devices)
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrCameraUnavailable
	}
	s.device = dev
	s.mu.Unlock()

	s.logger.Info("starting capture", zap.String("device_id", dev.ID), zap.String("label", dev.Label))

	err = s.decoder.DecodeFrom(ctx, dev.ID,
		func(text string) { s.handleResult(gen, text) },
		func(err error) { s.handleError(gen, err) },
	)
	if err != nil {
		return s.fail(gen, classifyStartError(err))
	}

	s.mu.Lock()
	if s.gen != gen {
		// Closed while starting: the Close call could not see this capture.
		s.mu.Unlock()
		_ = s.decoder.Stop()
		return ErrCameraUnavailable
	}
	if s.state == StatePermissionPending {
		s.state = StateActive
	}
	s.started = true
	s.mu.Unlock()
	return nil
}

// Close releases the device and returns to Closed. It is safe to call in
// any state and any number of times.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	release := s.started
	s.gen++
	s.state = StateClosed
	s.err = nil
	s.started = false
	s.mu.Unlock()

	if !release {
		return nil
	}
	if err := s.decoder.Stop(); err != nil {
		s.logger.Warn("stop capture", zap.Error(err))
		return err
	}
	return nil
}

func (s *Session) fail(gen uint64, err error) error {
	s.mu.Lock()
	current := s.gen == gen
	if current {
		s.state = StateError
		s.err = err
	}
	s.mu.Unlock()

	s.logger.Warn("capture failed to start", zap.Error(err))
	if current && errors.Is(err, ErrPermissionDenied) && s.handlers.OnPermissionError != nil {
		s.handlers.OnPermissionError(err)
	}
	return err
}

func (s *Session) handleResult(gen uint64, text string) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	// A good read after a decoder fault means capture recovered.
	if s.state == StateError && errors.Is(s.err, ErrDecodeFailure) {
		s.state = StateActive
		s.err = nil
	}
	s.mu.Unlock()

	if s.handlers.OnDecoded != nil {
		s.handlers.OnDecoded(text)
	}
}

func (s *Session) handleError(gen uint64, err error) {
	if errors.Is(err, ErrTransientMiss) {
		s.logger.Debug("no code in frame")
		return
	}
	if !errors.Is(err, ErrDecodeFailure) {
		err = fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.state = StateError
	s.err = err
	s.mu.Unlock()

	s.logger.Error("decode error", zap.Error(err))
	if s.handlers.OnDecodeError != nil {
		s.handlers.OnDecodeError(err)
	}
}

// SelectDevice prefers a rear-facing camera by label and falls back to the
// first device. devices must not be empty.
func SelectDevice(devices []Device) Device {
	for _, d := range devices {
		label := strings.ToLower(d.Label)
		if strings.Contains(label, "back") || strings.Contains(label, "rear") {
			return d
		}
	}
	return devices[0]
}

func classifyStartError(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrNoDevice),
		errors.Is(err, ErrCameraUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}
}
