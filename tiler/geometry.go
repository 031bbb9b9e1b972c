package tiler

import (
	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// Container slack reserved past the end of a 2-D allocation, in pages. The
// tiler banks allocations in groups of 64 pages for 8-bit blocks and 32
// pages otherwise, so the reported container can exceed the content by up
// to one bank minus one page.
const (
	overheadPages8Bit  = 63
	overheadPagesOther = 31
)

// resolveBlockGeometry rewrites blk's driver-reported geometry into the
// definitive geometry of a block carrying length bytes.
//
// The driver reports the container of a 2-D block, not its content: Height
// arrives in container pages and Width spans the whole container row. The
// content page width has to be recovered from length. A column of Height
// pages holds at most Height*PageSize bytes and, allowing for bank slack,
// as little as that minus the overhead pages, which brackets the feasible
// page widths. When several widths remain feasible the narrowest one is
// chosen and a warning is logged; narrower layouts are taller and leave no
// container column unused.
//
// strideInBytes selects byte-unit stride output. The default keeps Stride
// in the same element units as Width, which is the driver's own accounting
// convention for resolved blocks.
func resolveBlockGeometry(logger *slog.Logger, blk *driver.BlockInfo, length int, strideInBytes bool) error {
	if blk.Fmt == driver.FormatPage {
		blk.Length = uint64(length)
		return nil
	}

	if length <= 0 {
		return cerrors.Wrapf(ErrGeometryInfeasible, "%d-byte 2-D block", length)
	}

	maxAllocSize := int(blk.Height) * driver.PageSize
	if maxAllocSize <= 0 {
		return cerrors.Wrapf(ErrGeometryInfeasible, "container is %d pages tall", blk.Height)
	}

	overhead := overheadPagesOther
	if blk.Fmt == driver.Format8Bit {
		overhead = overheadPages8Bit
	}
	minAllocSize := maxAllocSize - overhead*driver.PageSize

	capacity := int(blk.Width) / driver.PageSize
	minPageWidth := (length + maxAllocSize - 1) / maxAllocSize

	// A container shorter than one bank can be almost entirely slack, so
	// only its capacity bounds the width from above.
	maxPageWidth := capacity
	if minAllocSize > 0 {
		maxPageWidth = (length + minAllocSize - 1) / minAllocSize
	}

	if maxPageWidth > capacity {
		logger.Debug("lowering the maximum page width to the container capacity",
			slog.Int("MaxPageWidth", maxPageWidth),
			slog.Int("Capacity", capacity))
		maxPageWidth = capacity
	}

	if minPageWidth > maxPageWidth {
		return cerrors.Wrapf(ErrGeometryInfeasible,
			"%d bytes need at least %d page columns, the container allows %d",
			length, minPageWidth, maxPageWidth)
	}

	if minPageWidth != maxPageWidth {
		logger.Warn("cannot resolve the block stride, choosing the smaller page width",
			slog.Int("MinPageWidth", minPageWidth),
			slog.Int("MaxPageWidth", maxPageWidth))
	}

	bpp := blk.Fmt.BytesPerPixel()
	blk.Height = uint32(length / driver.PageSize / minPageWidth)
	blk.Width = uint32(driver.PageSize * minPageWidth / bpp)
	blk.Stride = blk.Width
	if strideInBytes {
		blk.Stride = uint32(int(blk.Width) * bpp)
	}

	if size := blockSize(blk); size != length {
		return cerrors.Wrapf(ErrGeometrySizeMismatch,
			"%s resolves to %d bytes, requested %d", blk, size, length)
	}

	return nil
}
