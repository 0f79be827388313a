package capture

import "errors"

var (
	// ErrNoDevice means no video input device could be enumerated or the
	// selected one disappeared.
	ErrNoDevice = errors.New("no capture device found")
	// ErrPermissionDenied means access to the device was refused.
	ErrPermissionDenied = errors.New("capture device permission denied")
	// ErrCameraUnavailable covers any other failure to start capturing.
	ErrCameraUnavailable = errors.New("capture device unavailable")
	// ErrTransientMiss is the normal "no code in this frame" outcome.
	// Decoders report it; sessions swallow it.
	ErrTransientMiss = errors.New("no code in frame")
	// ErrDecodeFailure wraps unexpected decoder faults.
	ErrDecodeFailure = errors.New("decode failure")
	ErrAlreadyOpen   = errors.New("capture session already open")
)
