//go:build linux

package driver

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// DefaultPath is the tiler device node.
const DefaultPath = "/dev/tiler"

// Device is an open descriptor on the tiler driver. Obtain one from Open;
// the zero value is not usable. Every request is a single syscall on the
// descriptor, so a Device may be shared between goroutines.
type Device struct {
	fd int
}

// Open opens the tiler device node at path, or at DefaultPath when path is
// empty. The descriptor is opened synchronous and read-write, matching the
// access the driver expects from buffer holders.
func Open(path string) (*Device, error) {
	if path == "" {
		path = DefaultPath
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, cerrors.Wrapf(err, "opening tiler device %s", path)
	}

	return &Device{fd: fd}, nil
}

func (d *Device) ioctl(request uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), request, uintptr(arg))
	if errno != 0 {
		return cerrors.Wrapf(errno, "tiler ioctl 0x%x", request)
	}
	return nil
}

// QueryBlock fills blk with the driver's description of the allocation at
// blk.SSPtr. The driver reports SSPtr as 0 when it holds no allocation
// there.
func (d *Device) QueryBlock(blk *BlockInfo) error {
	return d.ioctl(TILIOC_QUERY_BLK, unsafe.Pointer(blk))
}

// RegisterBuffer registers buf's block list as a single buffer. On success
// the driver stores the buffer id in buf.Offset.
func (d *Device) RegisterBuffer(buf *BufInfo) error {
	return d.ioctl(TILIOC_RBUF, unsafe.Pointer(buf))
}

// QueryBuffer recovers the registered block list for the buffer id in
// buf.Offset.
func (d *Device) QueryBuffer(buf *BufInfo) error {
	return d.ioctl(TILIOC_QBUF, unsafe.Pointer(buf))
}

// DeregisterBuffer releases the registration identified by buf.Offset.
func (d *Device) DeregisterBuffer(buf *BufInfo) error {
	return d.ioctl(TILIOC_URBUF, unsafe.Pointer(buf))
}

// MapBuffer maps size bytes of the registered buffer at the given offset,
// shared and read-write, and returns the mapping address. The raw mmap
// syscall is used rather than a slice-based wrapper because the mapping is
// later released from a recomputed page-aligned address, not from a
// retained slice.
func (d *Device) MapBuffer(size int, offset int64) (uintptr, error) {
	addr, _, errno := unix.Syscall6(unix.SYS_MMAP, 0, uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED, uintptr(d.fd), uintptr(offset))
	if errno != 0 {
		return 0, cerrors.Wrapf(errno, "mapping %d bytes of tiler buffer at offset 0x%x", size, offset)
	}
	return addr, nil
}

// UnmapBuffer releases size bytes of mapping starting at addr. addr must
// be page aligned.
func (d *Device) UnmapBuffer(addr uintptr, size int) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, uintptr(size), 0)
	if errno != 0 {
		return cerrors.Wrapf(errno, "unmapping %d bytes at 0x%x", size, addr)
	}
	return nil
}

// Close releases the descriptor. Mappings created through MapBuffer
// survive the close.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}
