//go:build linux

package tiler

import (
	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
)

var _ DriverConn = (*driver.Device)(nil)

// deviceDriver opens the kernel tiler device node for each connection.
type deviceDriver struct {
	path string
}

// NewDeviceDriver returns a Driver backed by the tiler device node at
// path. An empty path selects driver.DefaultPath.
func NewDeviceDriver(path string) Driver {
	return deviceDriver{path: path}
}

func (d deviceDriver) Open() (DriverConn, error) {
	dev, err := driver.Open(d.path)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
