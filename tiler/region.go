package tiler

import (
	"unsafe"

	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
	"github.com/Ar3kkusu/android-hardware-ti-tiler/memutils"
	"github.com/pkg/errors"
)

// mappedRegion is an owned view of one mapped buffer: the page-aligned base
// the driver mapping returned, the combined byte size of the blocks laid
// out in it, and the sub-page offset of the first block within the first
// page. All pointer arithmetic on the mapping goes through this type so it
// stays bounds checked against the region that backs it.
type mappedRegion struct {
	base       uintptr
	size       int
	pageOffset int
}

func newMappedRegion(base uintptr, size int, pageOffset int) mappedRegion {
	region := mappedRegion{
		base:       base,
		size:       size,
		pageOffset: pageOffset,
	}
	memutils.DebugValidate(&region)
	return region
}

// visibleBase is the pointer handed to consumers: the mapping base advanced
// past the first block's sub-page offset.
func (r *mappedRegion) visibleBase() unsafe.Pointer {
	return unsafe.Pointer(r.base + uintptr(r.pageOffset))
}

// blockPointer returns the consumer-visible address offset bytes into the
// region. offset may equal size only for an empty trailing block.
func (r *mappedRegion) blockPointer(offset int) (unsafe.Pointer, error) {
	if offset < 0 || offset > r.size {
		return nil, errors.Errorf("block offset %d lies outside the %d-byte region", offset, r.size)
	}
	return unsafe.Pointer(r.base + uintptr(r.pageOffset) + uintptr(offset)), nil
}

func (r *mappedRegion) Validate() error {
	if r.base == 0 {
		return errors.New("mapped region has no base address")
	}
	if r.base != memutils.AlignDownPtr(r.base, driver.PageSize) {
		return errors.Errorf("mapped region base 0x%x is not page aligned", r.base)
	}
	if r.size <= 0 {
		return errors.Errorf("mapped region has an invalid size %d", r.size)
	}
	if r.pageOffset < 0 || r.pageOffset >= driver.PageSize {
		return errors.Errorf("sub-page offset %d lies outside a %d-byte page", r.pageOffset, driver.PageSize)
	}
	return nil
}
