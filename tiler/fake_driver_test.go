package tiler

import (
	"sync"
	"unsafe"

	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
	"github.com/Ar3kkusu/android-hardware-ti-tiler/memutils"
	"github.com/pkg/errors"
)

// A translator with a fixed device-to-system address table
type fakeTranslator struct {
	table map[DeviceAddress]uint64
}

func (t *fakeTranslator) Translate(addr DeviceAddress) uint64 {
	return t.table[addr]
}

// fakeDriver implements the tiler device in memory. Allocations are seeded
// with seedBlock before a test runs. Registered buffers are backed by
// page-aligned Go memory so that sub-page fixup and round-down unmap
// arithmetic behave exactly as against the real device.
type fakeDriver struct {
	mu sync.Mutex

	openErr     error
	queryErr    error
	registerErr error
	bufQueryErr error
	deregErr    error
	mapErr      error
	unmapErr    error

	blocks   map[uint64]driver.BlockInfo
	buffers  map[uint64]driver.BufInfo
	mappings map[uintptr]*fakeMapping
	lastID   uint64
	conns    []*fakeConn

	openCalls       int
	queryBlockCalls int
	registerCalls   int
	queryBufCalls   int
	deregCalls      int
	mapCalls        int
	unmapCalls      int
}

type fakeMapping struct {
	backing []byte
	base    uintptr
	size    int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		blocks:   make(map[uint64]driver.BlockInfo),
		buffers:  make(map[uint64]driver.BufInfo),
		mappings: make(map[uintptr]*fakeMapping),
		lastID:   0x4000,
	}
}

// seedBlock makes the driver hold an allocation, described by blk, at the
// system-space address ssptr.
func (d *fakeDriver) seedBlock(ssptr uint64, blk driver.BlockInfo) {
	d.blocks[ssptr] = blk
}

func (d *fakeDriver) Open() (DriverConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.openCalls++
	if d.openErr != nil {
		return nil, d.openErr
	}

	conn := &fakeConn{driver: d}
	d.conns = append(d.conns, conn)
	return conn, nil
}

// openConns counts connections handed out that have not been closed yet.
func (d *fakeDriver) openConns() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	open := 0
	for _, conn := range d.conns {
		if !conn.closed {
			open++
		}
	}
	return open
}

type fakeConn struct {
	driver *fakeDriver
	closed bool
}

func (c *fakeConn) QueryBlock(blk *driver.BlockInfo) error {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()

	c.driver.queryBlockCalls++
	if c.driver.queryErr != nil {
		return c.driver.queryErr
	}

	seeded, ok := c.driver.blocks[blk.SSPtr]
	if !ok {
		// The real driver reports an untracked address by zeroing ssptr.
		blk.SSPtr = 0
		return nil
	}

	ssptr := blk.SSPtr
	*blk = seeded
	blk.SSPtr = ssptr
	return nil
}

func (c *fakeConn) RegisterBuffer(buf *driver.BufInfo) error {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()

	c.driver.registerCalls++
	if c.driver.registerErr != nil {
		return c.driver.registerErr
	}

	c.driver.lastID += driver.PageSize
	buf.Offset = c.driver.lastID
	c.driver.buffers[buf.Offset] = *buf
	return nil
}

func (c *fakeConn) QueryBuffer(buf *driver.BufInfo) error {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()

	c.driver.queryBufCalls++
	if c.driver.bufQueryErr != nil {
		return c.driver.bufQueryErr
	}

	registered, ok := c.driver.buffers[buf.Offset]
	if !ok {
		return errors.Errorf("no buffer is registered under id 0x%x", buf.Offset)
	}
	*buf = registered
	return nil
}

func (c *fakeConn) DeregisterBuffer(buf *driver.BufInfo) error {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()

	c.driver.deregCalls++
	if c.driver.deregErr != nil {
		return c.driver.deregErr
	}

	if _, ok := c.driver.buffers[buf.Offset]; !ok {
		return errors.Errorf("no buffer is registered under id 0x%x", buf.Offset)
	}
	delete(c.driver.buffers, buf.Offset)
	return nil
}

func (c *fakeConn) MapBuffer(size int, offset int64) (uintptr, error) {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()

	c.driver.mapCalls++
	if c.driver.mapErr != nil {
		return 0, c.driver.mapErr
	}
	if size <= 0 {
		return 0, errors.Errorf("cannot map %d bytes", size)
	}
	if _, ok := c.driver.buffers[uint64(offset)]; !ok {
		return 0, errors.Errorf("offset 0x%x does not name a registered buffer", offset)
	}

	backing := make([]byte, size+driver.PageSize)
	base := memutils.AlignUpPtr(uintptr(unsafe.Pointer(&backing[0])), driver.PageSize)

	c.driver.mappings[base] = &fakeMapping{backing: backing, base: base, size: size}
	return base, nil
}

func (c *fakeConn) UnmapBuffer(addr uintptr, size int) error {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()

	c.driver.unmapCalls++
	if c.driver.unmapErr != nil {
		return c.driver.unmapErr
	}

	mapping, ok := c.driver.mappings[addr]
	if !ok {
		return errors.Errorf("no mapping starts at 0x%x", addr)
	}
	if mapping.size != size {
		return errors.Errorf("the mapping at 0x%x covers %d bytes, not %d", addr, mapping.size, size)
	}
	delete(c.driver.mappings, addr)
	return nil
}

func (c *fakeConn) Close() error {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()

	c.closed = true
	return nil
}
