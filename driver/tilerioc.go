// Package driver mirrors the userspace ABI of the TI OMAP tiler kernel
// module and, on linux, opens its device node. The structures in this
// package are passed to the kernel by pointer, so their layout must not
// change.
package driver

import (
	"fmt"
	"unsafe"
)

const (
	// PageSize is the tiler container page size. Block geometry, buffer
	// layout and mapping arithmetic are all expressed in these pages.
	PageSize = 4096

	// MaxNumBlocks bounds the number of blocks the driver accepts in a
	// single registered buffer.
	MaxNumBlocks = 16
)

// Format identifies the tiler container layout of a block.
type Format uint32

const (
	FormatInvalid Format = iota

	// Format8Bit, Format16Bit and Format32Bit are the tiled 2-D layouts,
	// named for their element width.
	Format8Bit
	Format16Bit
	Format32Bit

	// FormatPage is the linear page-mode layout. Page-mode blocks carry a
	// byte length instead of 2-D geometry.
	FormatPage
)

var formatMapping = make(map[Format]string)

func (f Format) String() string {
	str, ok := formatMapping[f]
	if !ok {
		return fmt.Sprintf("UnknownFormat(%d)", uint32(f))
	}
	return str
}

func init() {
	formatMapping[FormatInvalid] = "FormatInvalid"
	formatMapping[Format8Bit] = "Format8Bit"
	formatMapping[Format16Bit] = "Format16Bit"
	formatMapping[Format32Bit] = "Format32Bit"
	formatMapping[FormatPage] = "FormatPage"
}

// BytesPerPixel returns the element width of a 2-D format. Page-mode and
// unrecognized formats are byte addressed and report 1.
func (f Format) BytesPerPixel() int {
	switch f {
	case Format32Bit:
		return 4
	case Format16Bit:
		return 2
	default:
		return 1
	}
}

// BlockInfo describes one tiler allocation. It flattens the kernel's
// dimension union: Length is meaningful for FormatPage blocks, Width and
// Height for the 2-D formats. SSPtr is the system-space address of the
// allocation inside the tiler container and is the key the driver tracks
// blocks by; Ptr is the block's address in whatever address space the
// holder of the struct cares about.
type BlockInfo struct {
	Fmt    Format
	Length uint64
	Width  uint32
	Height uint32
	Stride uint32
	Ptr    uint64
	SSPtr  uint64
}

func (b *BlockInfo) String() string {
	switch b.Fmt {
	case FormatPage:
		return fmt.Sprintf("[p=0x%x(0x%x),l=0x%x,s=%d]", b.Ptr, b.SSPtr, b.Length, b.Stride)
	case Format8Bit, Format16Bit, Format32Bit:
		return fmt.Sprintf("[p=0x%x(0x%x),%d*%d*%d,s=%d]", b.Ptr, b.SSPtr,
			b.Width, b.Height, b.Fmt.BytesPerPixel()*8, b.Stride)
	default:
		return fmt.Sprintf("*[p=0x%x(0x%x),l=0x%x,s=%d,fmt=%s]", b.Ptr, b.SSPtr,
			b.Length, b.Stride, b.Fmt)
	}
}

// BufInfo is the argument block for the buffer-path requests. Offset is
// assigned by the driver on registration; it identifies the buffer from
// then on and doubles as the mmap offset for the combined region.
type BufInfo struct {
	NumBlocks uint32
	Blocks    [MaxNumBlocks]BlockInfo
	Offset    uint64
}

func (b *BufInfo) String() string {
	out := fmt.Sprintf("buf={n=%d,id=0x%x", b.NumBlocks, b.Offset)
	for ix := uint32(0); ix < b.NumBlocks && ix < MaxNumBlocks; ix++ {
		out += b.Blocks[ix].String()
	}
	return out + "}"
}

// Linux ioctl request encoding, from include/asm-generic/ioctl.h.
const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite uintptr = 1
	iocRead  uintptr = 2
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNrShift | size<<iocSizeShift
}

func iow(typ, nr, size uintptr) uintptr {
	return ioc(iocWrite, typ, nr, size)
}

func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocWrite|iocRead, typ, nr, size)
}

// tilerMagic is the ioctl magic byte claimed by the tiler driver.
const tilerMagic = 'z'

// Request codes accepted by the tiler device. Only the buffer-path
// requests are issued by this library; the allocation-path codes are kept
// so the table matches the kernel header.
var (
	// TILIOC_GBLK allocates a new block.
	TILIOC_GBLK = iowr(tilerMagic, 100, unsafe.Sizeof(BlockInfo{}))
	// TILIOC_FBLK frees a block.
	TILIOC_FBLK = iow(tilerMagic, 101, unsafe.Sizeof(BlockInfo{}))
	// TILIOC_GSSP translates a virtual address to its system-space address.
	TILIOC_GSSP = iowr(tilerMagic, 102, unsafe.Sizeof(uint32(0)))
	// TILIOC_MBLK maps an existing user buffer into the container.
	TILIOC_MBLK = iowr(tilerMagic, 103, unsafe.Sizeof(BlockInfo{}))
	// TILIOC_UMBLK unmaps a block mapped with TILIOC_MBLK.
	TILIOC_UMBLK = iow(tilerMagic, 104, unsafe.Sizeof(BlockInfo{}))
	// TILIOC_QBUF recovers the block list registered under BufInfo.Offset.
	TILIOC_QBUF = iowr(tilerMagic, 105, unsafe.Sizeof(BufInfo{}))
	// TILIOC_RBUF registers a block list as one buffer and assigns its id.
	TILIOC_RBUF = iowr(tilerMagic, 106, unsafe.Sizeof(BufInfo{}))
	// TILIOC_URBUF releases a registration made with TILIOC_RBUF.
	TILIOC_URBUF = iowr(tilerMagic, 107, unsafe.Sizeof(BufInfo{}))
	// TILIOC_QUERY_BLK fills in the driver's description of the allocation
	// at BlockInfo.SSPtr.
	TILIOC_QUERY_BLK = iowr(tilerMagic, 108, unsafe.Sizeof(BlockInfo{}))
	// TILIOC_PRBLK pins a previously registered block.
	TILIOC_PRBLK = iow(tilerMagic, 109, unsafe.Sizeof(BlockInfo{}))
	// TILIOC_URBLK unpins a block by id.
	TILIOC_URBLK = iow(tilerMagic, 110, unsafe.Sizeof(uint32(0)))
)
