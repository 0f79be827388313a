package capture

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDecoder struct {
	mu        sync.Mutex
	devices   []Device
	listErr   error
	startErr  error
	stopErr   error
	started   []string
	stops     int
	onResult  func(string)
	onError   func(error)
	onStarted func()
}

func (f *fakeDecoder) ListDevices(ctx context.Context) ([]Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Device(nil), f.devices...), nil
}

func (f *fakeDecoder) DecodeFrom(ctx context.Context, deviceID string, onResult func(string), onError func(error)) error {
	f.mu.Lock()
	if f.startErr != nil {
		err := f.startErr
		f.mu.Unlock()
		return err
	}
	f.started = append(f.started, deviceID)
	f.onResult, f.onError = onResult, onError
	hook := f.onStarted
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (f *fakeDecoder) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return f.stopErr
}

// emit delivers a decode result through the callbacks of the latest capture.
func (f *fakeDecoder) emit(text string) {
	f.mu.Lock()
	cb := f.onResult
	f.mu.Unlock()
	cb(text)
}

func (f *fakeDecoder) fail(err error) {
	f.mu.Lock()
	cb := f.onError
	f.mu.Unlock()
	cb(err)
}

type recorder struct {
	mu           sync.Mutex
	decoded      []string
	permission   []error
	decodeErrors []error
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnDecoded: func(text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.decoded = append(r.decoded, text)
		},
		OnPermissionError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.permission = append(r.permission, err)
		},
		OnDecodeError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.decodeErrors = append(r.decodeErrors, err)
		},
	}
}

func newTestSession(dec *fakeDecoder) (*Session, *recorder) {
	rec := &recorder{}
	return NewSession(dec, rec.handlers(), zap.NewNop()), rec
}

func TestOpenWithoutDevicesFails(t *testing.T) {
	dec := &fakeDecoder{}
	s, _ := newTestSession(dec)

	err := s.Open(context.Background())
	assert.ErrorIs(t, err, ErrNoDevice)
	assert.Equal(t, StateError, s.State())
	assert.ErrorIs(t, s.Err(), ErrNoDevice)
	assert.Empty(t, dec.started)
}

func TestOpenPrefersRearCamera(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{
		{ID: "front", Label: "FaceTime HD Camera"},
		{ID: "back", Label: "Back Camera"},
	}}
	s, _ := newTestSession(dec)

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, []string{"back"}, dec.started)
	assert.Equal(t, "back", s.Device().ID)
}

func TestSelectDevice(t *testing.T) {
	assert.Equal(t, "a", SelectDevice([]Device{{ID: "a", Label: "USB"}, {ID: "b", Label: "Integrated"}}).ID)
	assert.Equal(t, "b", SelectDevice([]Device{{ID: "a", Label: "front"}, {ID: "b", Label: "REAR wide"}}).ID)
	assert.Equal(t, "a", SelectDevice([]Device{{ID: "a"}}).ID)
}

func TestOpenTwiceIsRejected(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, _ := newTestSession(dec)

	require.NoError(t, s.Open(context.Background()))
	assert.ErrorIs(t, s.Open(context.Background()), ErrAlreadyOpen)
	assert.Len(t, dec.started, 1)
}

func TestPermissionDeniedThenReopen(t *testing.T) {
	dec := &fakeDecoder{
		devices:  []Device{{ID: "cam"}},
		startErr: ErrPermissionDenied,
	}
	s, rec := newTestSession(dec)

	err := s.Open(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateError, s.State())
	require.Len(t, rec.permission, 1)

	dec.mu.Lock()
	dec.startErr = nil
	dec.mu.Unlock()

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, StateActive, s.State())
	assert.Nil(t, s.Err())
	assert.Zero(t, dec.stops, "a capture that never started has nothing to release")
}

func TestStartFailureIsClassified(t *testing.T) {
	dec := &fakeDecoder{
		devices:  []Device{{ID: "cam"}},
		startErr: errors.New("device busy"),
	}
	s, rec := newTestSession(dec)

	err := s.Open(context.Background())
	assert.ErrorIs(t, err, ErrCameraUnavailable)
	assert.Empty(t, rec.permission)

	dec.listErr = errors.New("enumerate failed")
	err = s.Open(context.Background())
	assert.ErrorIs(t, err, ErrCameraUnavailable)
}

func TestDecodeResultsAndTransientMisses(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, rec := newTestSession(dec)
	require.NoError(t, s.Open(context.Background()))

	dec.fail(ErrTransientMiss)
	dec.emit("A123")
	dec.fail(ErrTransientMiss)
	dec.emit("Z999")

	assert.Equal(t, []string{"A123", "Z999"}, rec.decoded)
	assert.Empty(t, rec.decodeErrors)
	assert.Equal(t, StateActive, s.State())
}

func TestDecodeFailureAndRecovery(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, rec := newTestSession(dec)
	require.NoError(t, s.Open(context.Background()))

	dec.fail(errors.New("worker crashed"))
	require.Len(t, rec.decodeErrors, 1)
	assert.ErrorIs(t, rec.decodeErrors[0], ErrDecodeFailure)
	assert.Equal(t, StateError, s.State())

	dec.emit("A123")
	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, []string{"A123"}, rec.decoded)
}

func TestCloseTwice(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, _ := newTestSession(dec)
	require.NoError(t, s.Open(context.Background()))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 1, dec.stops)
}

func TestCloseNeverOpened(t *testing.T) {
	dec := &fakeDecoder{}
	s, _ := newTestSession(dec)
	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	assert.Zero(t, dec.stops)
}

func TestCloseAfterErrorReleasesCapture(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, _ := newTestSession(dec)
	require.NoError(t, s.Open(context.Background()))
	dec.fail(errors.New("worker crashed"))

	require.NoError(t, s.Close())
	assert.Equal(t, 1, dec.stops)
	assert.Equal(t, StateClosed, s.State())
}

func TestReopenFromErrorReleasesPreviousCapture(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, _ := newTestSession(dec)
	require.NoError(t, s.Open(context.Background()))
	dec.fail(errors.New("worker crashed"))

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, 1, dec.stops)
	assert.Len(t, dec.started, 2)
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, rec := newTestSession(dec)
	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Close())

	dec.emit("A123")
	dec.fail(errors.New("late"))

	assert.Empty(t, rec.decoded)
	assert.Empty(t, rec.decodeErrors)
	assert.Equal(t, StateClosed, s.State())
}

func TestStaleCaptureEventsAreDropped(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, rec := newTestSession(dec)
	require.NoError(t, s.Open(context.Background()))

	dec.mu.Lock()
	staleResult := dec.onResult
	dec.mu.Unlock()

	require.NoError(t, s.Close())
	require.NoError(t, s.Open(context.Background()))

	staleResult("old")
	dec.emit("new")
	assert.Equal(t, []string{"new"}, rec.decoded)
}

func TestCloseWhileStarting(t *testing.T) {
	dec := &fakeDecoder{devices: []Device{{ID: "cam"}}}
	s, _ := newTestSession(dec)
	dec.onStarted = func() { _ = s.Close() }

	err := s.Open(context.Background())
	assert.ErrorIs(t, err, ErrCameraUnavailable)
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 1, dec.stops, "capture started during close must still be released")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "permission_pending", StatePermissionPending.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "state(9)", State(9).String())
}
