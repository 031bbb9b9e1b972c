package driver_test

import (
	"testing"
	"unsafe"

	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
	"github.com/stretchr/testify/require"
)

func TestRequestCodeEncoding(t *testing.T) {
	blockSize := unsafe.Sizeof(driver.BlockInfo{})
	bufSize := unsafe.Sizeof(driver.BufInfo{})
	wordSize := unsafe.Sizeof(uint32(0))

	const (
		dirWrite = 1
		dirRead  = 2
	)

	tests := map[string]struct {
		request uintptr
		dir     uintptr
		nr      uintptr
		size    uintptr
	}{
		"GBLK":      {request: driver.TILIOC_GBLK, dir: dirWrite | dirRead, nr: 100, size: blockSize},
		"FBLK":      {request: driver.TILIOC_FBLK, dir: dirWrite, nr: 101, size: blockSize},
		"GSSP":      {request: driver.TILIOC_GSSP, dir: dirWrite | dirRead, nr: 102, size: wordSize},
		"MBLK":      {request: driver.TILIOC_MBLK, dir: dirWrite | dirRead, nr: 103, size: blockSize},
		"UMBLK":     {request: driver.TILIOC_UMBLK, dir: dirWrite, nr: 104, size: blockSize},
		"QBUF":      {request: driver.TILIOC_QBUF, dir: dirWrite | dirRead, nr: 105, size: bufSize},
		"RBUF":      {request: driver.TILIOC_RBUF, dir: dirWrite | dirRead, nr: 106, size: bufSize},
		"URBUF":     {request: driver.TILIOC_URBUF, dir: dirWrite | dirRead, nr: 107, size: bufSize},
		"QUERY_BLK": {request: driver.TILIOC_QUERY_BLK, dir: dirWrite | dirRead, nr: 108, size: blockSize},
		"PRBLK":     {request: driver.TILIOC_PRBLK, dir: dirWrite, nr: 109, size: blockSize},
		"URBLK":     {request: driver.TILIOC_URBLK, dir: dirWrite, nr: 110, size: wordSize},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.dir, test.request>>30&0x3)
			require.Equal(t, uintptr('z'), test.request>>8&0xff)
			require.Equal(t, test.nr, test.request&0xff)
			require.Equal(t, test.size, test.request>>16&0x3fff)
		})
	}
}

func TestBufInfoFitsIoctlSizeField(t *testing.T) {
	require.Less(t, int(unsafe.Sizeof(driver.BufInfo{})), 1<<14)
}

func TestFormatString(t *testing.T) {
	require.Equal(t, "FormatPage", driver.FormatPage.String())
	require.Equal(t, "Format16Bit", driver.Format16Bit.String())
	require.Equal(t, "UnknownFormat(9)", driver.Format(9).String())
}

func TestFormatBytesPerPixel(t *testing.T) {
	tests := map[string]struct {
		fmt      driver.Format
		expected int
	}{
		"8Bit":    {fmt: driver.Format8Bit, expected: 1},
		"16Bit":   {fmt: driver.Format16Bit, expected: 2},
		"32Bit":   {fmt: driver.Format32Bit, expected: 4},
		"Page":    {fmt: driver.FormatPage, expected: 1},
		"Unknown": {fmt: driver.Format(9), expected: 1},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.expected, test.fmt.BytesPerPixel())
		})
	}
}

func TestBlockInfoString(t *testing.T) {
	page := driver.BlockInfo{
		Fmt:    driver.FormatPage,
		Length: 0x3000,
		Ptr:    0x1000,
		SSPtr:  0x2000,
	}
	require.Equal(t, "[p=0x1000(0x2000),l=0x3000,s=0]", page.String())

	tiled := driver.BlockInfo{
		Fmt:    driver.Format16Bit,
		Width:  2048,
		Height: 64,
		Stride: 2048,
		SSPtr:  0x81001000,
	}
	require.Equal(t, "[p=0x0(0x81001000),2048*64*16,s=2048]", tiled.String())

	unknown := driver.BlockInfo{
		Fmt:    driver.Format(9),
		Length: 0x100,
		Stride: 7,
	}
	require.Equal(t, "*[p=0x0(0x0),l=0x100,s=7,fmt=UnknownFormat(9)]", unknown.String())
}

func TestBufInfoString(t *testing.T) {
	var buf driver.BufInfo
	buf.NumBlocks = 2
	buf.Offset = 0x4000
	buf.Blocks[0] = driver.BlockInfo{Fmt: driver.FormatPage, Length: 0x1000, SSPtr: 0xa000}
	buf.Blocks[1] = driver.BlockInfo{Fmt: driver.Format8Bit, Width: 4096, Height: 4, Stride: 4096, SSPtr: 0xb000}

	require.Equal(t,
		"buf={n=2,id=0x4000[p=0x0(0xa000),l=0x1000,s=0][p=0x0(0xb000),4096*4*8,s=4096]}",
		buf.String())
}
