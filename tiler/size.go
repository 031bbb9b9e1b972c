package tiler

import (
	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
	"github.com/Ar3kkusu/android-hardware-ti-tiler/memutils"
)

// defStride returns the padded stride, in bytes, of a 2-D block row that is
// widthBytes wide. The tiler maps every row to its own run of container
// pages, so strides round up to the page size.
func defStride(widthBytes int) int {
	return memutils.AlignUp(widthBytes, driver.PageSize)
}

// blockSize returns the byte size of the block blk occupies in a mapped
// buffer: the literal length for page-mode blocks, rows times padded stride
// for 2-D blocks, and 0 for formats this library does not recognize. Every
// size decision (geometry validation, buffer layout, unmap extent) goes
// through here so the answers cannot drift apart.
func blockSize(blk *driver.BlockInfo) int {
	switch blk.Fmt {
	case driver.FormatPage:
		return int(blk.Length)
	case driver.Format8Bit, driver.Format16Bit, driver.Format32Bit:
		return int(blk.Height) * defStride(int(blk.Width)*blk.Fmt.BytesPerPixel())
	default:
		return 0
	}
}
