package tiler

import (
	"github.com/Ar3kkusu/android-hardware-ti-tiler/driver"
	"github.com/Ar3kkusu/android-hardware-ti-tiler/memutils"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific remapper behaviors to activate or deactivate
type CreateFlags int32

var remapperCreateFlagsMapping = memutils.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	remapperCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return remapperCreateFlagsMapping.FlagsToString(f)
}

const (
	// RemapperCreateExternallySynchronized ensures that this remapper and its registry
	// will not be synchronized internally. The consumer must guarantee they are used from only one
	// thread at a time or are synchronized by some other mechanism, but performance may improve because
	// internal mutexes are not used.
	RemapperCreateExternallySynchronized CreateFlags = 1 << iota

	// RemapperCreateStrideInBytes records resolved 2-D strides in bytes rather than in the
	// driver's convention of matching the width's element units. Only activate this when the
	// consumer of resolved block descriptors expects byte strides.
	RemapperCreateStrideInBytes
)

func init() {
	RemapperCreateExternallySynchronized.Register("RemapperCreateExternallySynchronized")
	RemapperCreateStrideInBytes.Register("RemapperCreateStrideInBytes")
}

// CreateOptions contains optional settings when creating a remapper
type CreateOptions struct {
	// Flags indicates specific remapper behaviors to activate or deactivate
	Flags CreateFlags
}

// New creates a new Remapper
//
// logger - Destination for method tracing and geometry diagnostics
//
// drv - Opens connections to the tiler allocation driver. One connection is opened
// and closed per remap or demap
//
// translator - The address-translation service for the remote processor's address space
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, drv Driver, translator AddressTranslator, options CreateOptions) (*Remapper, error) {
	if logger == nil {
		return nil, errors.New("a logger is required, but none was provided")
	}
	if drv == nil {
		return nil, errors.New("a tiler driver is required, but none was provided")
	}
	if translator == nil {
		return nil, errors.New("an address translator is required, but none was provided")
	}
	memutils.DebugCheckPow2(driver.PageSize, "PageSize")

	useMutex := options.Flags&RemapperCreateExternallySynchronized == 0

	remapper := &Remapper{
		logger:     logger,
		driver:     drv,
		translator: translator,

		createFlags: options.Flags,
	}
	remapper.registry.Init(useMutex)

	return remapper, nil
}
