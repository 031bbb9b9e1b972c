package tiler

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
	"github.com/Ar3kkusu/android-hardware-ti-tiler/memutils"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// DeviceAddress is an address in the remote processor's virtual address
// space. It has no local meaning until translated.
type DeviceAddress uint64

// AddressTranslator converts remote device addresses into the system-space
// addresses the tiler driver tracks allocations by. Translate returns 0
// for an address with no system-space mapping.
type AddressTranslator interface {
	Translate(addr DeviceAddress) uint64
}

// Driver opens connections to the tiler allocation driver.
type Driver interface {
	Open() (DriverConn, error)
}

// DriverConn is one open connection to the tiler driver. Connections are
// short-lived: the remapper opens one per operation and closes it on every
// return path. Mappings made through MapBuffer outlive the connection that
// made them.
type DriverConn interface {
	QueryBlock(blk *driver.BlockInfo) error
	RegisterBuffer(buf *driver.BufInfo) error
	QueryBuffer(buf *driver.BufInfo) error
	DeregisterBuffer(buf *driver.BufInfo) error
	MapBuffer(size int, offset int64) (uintptr, error)
	UnmapBuffer(addr uintptr, size int) error
	Close() error
}

// Remapper presents sets of tiler blocks produced by a remote processor as
// single contiguous buffers in the local address space. It does not
// allocate: it claims allocations the driver already holds for the remote
// producer, registers them as one buffer and owns the resulting mapping
// until Demap.
type Remapper struct {
	logger     *slog.Logger
	driver     Driver
	translator AddressTranslator

	createFlags CreateFlags
	registry    remapRegistry
}

// Remap claims the blocks at the given device addresses and maps them as
// one contiguous buffer, returning the address of the combined region.
// lengths carries the byte length of each block, which the driver does not
// track and cannot be asked for; negative lengths are rejected before any
// driver interaction. Blocks appear in the mapping in argument order.
//
// On failure no driver-side registration survives and the returned pointer
// is nil.
func (r *Remapper) Remap(addrs []DeviceAddress, lengths []int) (unsafe.Pointer, error) {
	r.logger.Debug("Remapper::Remap", slog.Int("NumBlocks", len(addrs)))

	if len(addrs) < 1 || len(addrs) > driver.MaxNumBlocks || len(addrs) != len(lengths) {
		return nil, errors.Wrapf(ErrInvalidBlockCount,
			"%d addresses with %d lengths, the driver accepts 1-%d blocks",
			len(addrs), len(lengths), driver.MaxNumBlocks)
	}
	for ix := range lengths {
		// A negative linear length survives the size round-trip and would
		// poison the running layout offsets.
		if lengths[ix] < 0 {
			return nil, errors.Wrapf(ErrInvalidBlockCount,
				"length[%d]=%d, block lengths cannot be negative", ix, lengths[ix])
		}
	}

	conn, err := r.driver.Open()
	if err != nil {
		return nil, errors.Wrapf(ErrDriverUnavailable, "%v", err)
	}
	defer func() {
		closeErr := conn.Close()
		if closeErr != nil {
			r.logger.Error("error attempting to close the tiler driver connection", slog.Any("error", closeErr))
		}
	}()

	var buf driver.BufInfo
	buf.NumBlocks = uint32(len(addrs))

	totalSize := 0
	for ix := range addrs {
		blk := &buf.Blocks[ix]

		blk.SSPtr = r.translator.Translate(addrs[ix])
		if blk.SSPtr == 0 {
			return nil, errors.Wrapf(ErrTranslationFailed, "dsptr[%d]=0x%x", ix, uint64(addrs[ix]))
		}

		r.dumpBlock("=(qb)=>", blk)
		err = conn.QueryBlock(blk)
		r.dumpBlock("<=(qb)=", blk)
		if err != nil {
			return nil, errors.Wrapf(ErrQueryFailed, "dsptr[%d]=0x%x: %v", ix, uint64(addrs[ix]), err)
		}
		if blk.SSPtr == 0 {
			return nil, errors.Wrapf(ErrQueryFailed, "tiler did not allocate dsptr[%d]=0x%x", ix, uint64(addrs[ix]))
		}

		err = resolveBlockGeometry(r.logger, blk, lengths[ix], r.createFlags&RemapperCreateStrideInBytes != 0)
		if err != nil {
			return nil, errors.Wrapf(err, "dsptr[%d]=0x%x", ix, uint64(addrs[ix]))
		}

		size := blockSize(blk)
		if size != lengths[ix] {
			return nil, errors.Wrapf(ErrGeometrySizeMismatch,
				"block %d sizes to %d bytes, requested %d", ix, size, lengths[ix])
		}
		totalSize += size
	}

	r.dumpBuf("==(RBUF)=>", &buf)
	err = conn.RegisterBuffer(&buf)
	r.dumpBuf("<=(RBUF)==", &buf)
	if err != nil {
		return nil, errors.Wrapf(ErrRegistrationFailed, "%d blocks, %d bytes: %v", len(addrs), totalSize, err)
	}
	if buf.Offset == 0 {
		return nil, errors.Wrapf(ErrRegistrationFailed, "driver assigned no id to the %d-block buffer", len(addrs))
	}

	base, err := conn.MapBuffer(totalSize, int64(buf.Offset))
	if err != nil {
		// The registration must not outlive a failed mapping.
		deregErr := conn.DeregisterBuffer(&buf)
		if deregErr != nil {
			r.logger.Error("error attempting to deregister the buffer after a failed mapping", slog.Any("error", deregErr))
		}
		return nil, errors.Wrapf(ErrMapFailed, "%d bytes at offset 0x%x: %v", totalSize, buf.Offset, err)
	}

	// The first block starts at its system-space sub-page offset within the
	// first mapped page, not at the page boundary.
	region := newMappedRegion(base, totalSize, int(buf.Blocks[0].SSPtr&(driver.PageSize-1)))
	visible := region.visibleBase()

	r.registry.Register(uintptr(visible), buf.Offset, totalSize, len(addrs))
	memutils.DebugValidate(&r.registry)

	offset := 0
	for ix := range addrs {
		blockPtr, ptrErr := region.blockPointer(offset)
		if ptrErr != nil {
			panic(fmt.Sprintf("block %d was laid out outside its own region: %+v", ix, ptrErr))
		}
		buf.Blocks[ix].Ptr = uint64(uintptr(blockPtr))
		offset += blockSize(&buf.Blocks[ix])
	}
	r.dumpBuf("==(mapped)=", &buf)

	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "Remapper::Remap succeeded",
		slog.String("Ptr", fmt.Sprintf("0x%x", uintptr(visible))),
		slog.Int("Size", totalSize),
		slog.String("BufferId", fmt.Sprintf("0x%x", buf.Offset)))

	return visible, nil
}

func (r *Remapper) dumpBlock(direction string, blk *driver.BlockInfo) {
	r.logger.Debug(direction, slog.String("Block", blk.String()))
}

func (r *Remapper) dumpBuf(direction string, buf *driver.BufInfo) {
	r.logger.Debug(direction, slog.String("Buf", buf.String()))
}
