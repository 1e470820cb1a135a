// Package framesource abstracts the stream of preview frames and full
// resolution stills that feed the scanning pipeline. A Source owns the
// camera (or a recorded substitute) and delivers downscaled preview frames
// to a detection callback while the session runs.
package framesource

import (
	"context"
	"errors"
	"image"
)

// Permission reports the camera authorization state before a session may
// start. Denied can be fixed by the user in settings; Restricted cannot.
type Permission int

const (
	PermissionGranted Permission = iota
	PermissionDenied
	PermissionRestricted
)

// String returns the lowercase name of the permission state.
func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	case PermissionRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// PermissionFunc reports the current camera permission. Sessions call it
// once before starting the underlying source.
type PermissionFunc func() Permission

// Orientation is the EXIF-style orientation tag attached to a captured
// still. Values follow the EXIF specification (1 through 8).
type Orientation int

const (
	OrientationUp            Orientation = 1 // stored upright
	OrientationUpMirrored    Orientation = 2
	OrientationDown          Orientation = 3
	OrientationDownMirrored  Orientation = 4
	OrientationLeftMirrored  Orientation = 5
	OrientationRight         Orientation = 6
	OrientationRightMirrored Orientation = 7
	OrientationLeft          Orientation = 8
)

// Still is a full resolution photo plus the orientation metadata needed to
// bring its pixel storage upright.
type Still struct {
	Image       image.Image
	Orientation Orientation
}

var (
	// ErrNotRunning is returned when a capture is requested before Start
	// or after Stop.
	ErrNotRunning = errors.New("framesource: source not running")
	// ErrExhausted is returned by finite sources once no frames remain.
	ErrExhausted = errors.New("framesource: no frames remaining")
)

// FrameHandler receives each preview frame while the source runs. Handlers
// are invoked from the source's delivery goroutine, one frame at a time.
type FrameHandler func(frame image.Image)

// Source produces preview frames and high resolution stills.
//
// Start is idempotent while running; Stop is idempotent once stopped.
// CapturePhoto blocks until a still is available, ctx is done, or the
// source stops.
type Source interface {
	Start() error
	Stop()
	CapturePhoto(ctx context.Context) (Still, error)
	SetTorch(on bool)
}
