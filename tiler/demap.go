package tiler

import (
	"fmt"
	"unsafe"

	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
	"github.com/Ar3kkusu/android-hardware-ti-tiler/memutils"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// accumErr keeps the first error of a best-effort teardown. Later failures
// are logged by the caller but must not mask the primary failure.
func accumErr(primary error, next error) error {
	if primary != nil {
		return primary
	}
	return next
}

// Demap tears down a remapping created by Remap. The pointer stops being
// tracked immediately; afterwards the driver registration is released and
// the local mapping is unmapped. Teardown is best effort: a failed buffer
// query does not stop the deregistration and a failed deregistration does
// not stop the unmap. The first error encountered is returned.
//
// Only pointers returned by Remap are accepted, and each is accepted only
// once.
func (r *Remapper) Demap(ptr unsafe.Pointer) error {
	r.logger.Debug("Remapper::Demap", slog.String("Ptr", fmt.Sprintf("0x%x", uintptr(ptr))))

	conn, err := r.driver.Open()
	if err != nil {
		return errors.Wrapf(ErrDriverUnavailable, "%v", err)
	}
	defer func() {
		closeErr := conn.Close()
		if closeErr != nil {
			r.logger.Error("error attempting to close the tiler driver connection", slog.Any("error", closeErr))
		}
	}()

	id, ok := r.registry.TakeByAddress(uintptr(ptr))
	if !ok {
		return errors.Wrapf(ErrNotRegistered, "ptr=0x%x", uintptr(ptr))
	}
	memutils.DebugValidate(&r.registry)

	var firstErr error
	var buf driver.BufInfo
	buf.Offset = id

	r.dumpBuf("==(QBUF)=>", &buf)
	err = conn.QueryBuffer(&buf)
	r.dumpBuf("<=(QBUF)==", &buf)
	if err != nil {
		r.logger.Error("error attempting to query the buffer block list", slog.Any("error", err))
		firstErr = accumErr(firstErr, errors.Wrapf(ErrQueryFailed, "bufferId=0x%x: %v", id, err))
	}

	// The driver side is released even when the query failed, so the
	// blocks can be reused by their owner.
	r.dumpBuf("==(URBUF)=>", &buf)
	err = conn.DeregisterBuffer(&buf)
	r.dumpBuf("<=(URBUF)==", &buf)
	if err != nil {
		r.logger.Error("error attempting to deregister the buffer", slog.Any("error", err))
		firstErr = accumErr(firstErr, errors.Wrapf(ErrDeregistrationFailed, "bufferId=0x%x: %v", id, err))
	}

	totalSize := 0
	for ix := uint32(0); ix < buf.NumBlocks && ix < driver.MaxNumBlocks; ix++ {
		totalSize += blockSize(&buf.Blocks[ix])
	}

	// The mapping extent is only known from the queried block list. When
	// the query produced nothing there is nothing safe to unmap.
	if totalSize > 0 {
		base := memutils.AlignDownPtr(uintptr(ptr), driver.PageSize)
		err = conn.UnmapBuffer(base, totalSize)
		if err != nil {
			r.logger.Error("error attempting to unmap the buffer", slog.Any("error", err))
			firstErr = accumErr(firstErr, errors.Wrapf(ErrUnmapFailed, "%d bytes at 0x%x: %v", totalSize, base, err))
		}
	}

	return firstErr
}
