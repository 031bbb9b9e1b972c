package tiler

import "github.com/pkg/errors"

// Sentinel errors distinguishing the failure points of Remap and Demap.
// Returned errors wrap these with call detail, so match them with
// errors.Is.
var (
	// ErrInvalidBlockCount is returned when a block list is empty, larger
	// than driver.MaxNumBlocks, disagrees with its length list, or carries
	// a negative block length.
	ErrInvalidBlockCount = errors.New("invalid block count")

	// ErrDriverUnavailable is returned when the tiler driver cannot be
	// opened.
	ErrDriverUnavailable = errors.New("cannot open the tiler driver")

	// ErrTranslationFailed is returned when a device address has no
	// system-space translation.
	ErrTranslationFailed = errors.New("device address does not translate to a system-space address")

	// ErrQueryFailed is returned when the driver holds no allocation for a
	// block, or cannot report a buffer's block list.
	ErrQueryFailed = errors.New("tiler driver cannot describe the block")

	// ErrGeometryInfeasible is returned when no page width can produce a
	// block's requested length.
	ErrGeometryInfeasible = errors.New("no page width can produce the requested block length")

	// ErrGeometrySizeMismatch is returned when resolved geometry does not
	// reproduce a block's requested length exactly.
	ErrGeometrySizeMismatch = errors.New("resolved block geometry does not reproduce the requested length")

	// ErrRegistrationFailed is returned when the driver rejects a buffer
	// registration.
	ErrRegistrationFailed = errors.New("tiler driver rejected the buffer registration")

	// ErrMapFailed is returned when a registered buffer cannot be mapped.
	ErrMapFailed = errors.New("cannot map the registered buffer")

	// ErrNotRegistered is returned by Demap for a pointer that no live
	// remapping owns.
	ErrNotRegistered = errors.New("pointer does not correspond to a remapped buffer")

	// ErrDeregistrationFailed is returned when the driver rejects a buffer
	// deregistration.
	ErrDeregistrationFailed = errors.New("tiler driver rejected the buffer deregistration")

	// ErrUnmapFailed is returned when a remapped buffer cannot be unmapped.
	ErrUnmapFailed = errors.New("cannot unmap the remapped buffer")
)
