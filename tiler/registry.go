package tiler

import (
	"fmt"
	"sync"

	"github.com/Ar3kkusu/android-hardware-ti-tiler/memutils"
	"github.com/Ar3kkusu/android-hardware-ti-tiler/tiler/internal/utils"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
)

var entryAllocator = sync.Pool{
	New: func() any {
		return &remapEntry{}
	},
}

// remapEntry records one live remapping: the pointer handed to the
// consumer, the driver's buffer id needed to tear the mapping down again,
// and enough layout detail for statistics.
type remapEntry struct {
	addr     uintptr
	bufferID uint64
	size     int
	blocks   int

	prev *remapEntry
	next *remapEntry
}

func (e *remapEntry) printParameters(json *jwriter.ObjectState) {
	json.Name("Ptr").String(fmt.Sprintf("0x%x", e.addr))
	json.Name("BufferId").String(fmt.Sprintf("0x%x", e.bufferID))
	json.Name("Size").Int(e.size)
	json.Name("Blocks").Int(e.blocks)
}

// remapRegistry tracks the live remappings of one Remapper. Entries form an
// insertion-ordered intrusive list for walks and reporting, with a
// swiss-map index for address lookup. The mutex covers structural mutation
// only; driver traffic never runs under it.
type remapRegistry struct {
	mutex utils.OptionalRWMutex

	count         int
	entryListHead *remapEntry
	entryListTail *remapEntry
	entryIndex    *swiss.Map[uintptr, *remapEntry]
}

func (r *remapRegistry) Init(useMutex bool) {
	r.mutex = utils.OptionalRWMutex{UseMutex: useMutex}
	r.entryIndex = swiss.NewMap[uintptr, *remapEntry](16)
}

func (r *remapRegistry) Validate() error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	declaredCount := r.count
	actualCount := 0

	for entry := r.entryListHead; entry != nil; entry = entry.next {
		indexed, ok := r.entryIndex.Get(entry.addr)
		if !ok || indexed != entry {
			return errors.Errorf("the registry entry for address 0x%x is missing from the index", entry.addr)
		}
		actualCount++
	}

	if declaredCount != actualCount {
		return errors.Errorf("the listed number of registry entries (%d) does not match the actual number of entries (%d)", declaredCount, actualCount)
	}

	if r.entryIndex.Count() != actualCount {
		return errors.Errorf("the registry index holds %d entries, the list holds %d", r.entryIndex.Count(), actualCount)
	}

	return nil
}

func (r *remapRegistry) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for entry := r.entryListHead; entry != nil; entry = entry.next {
		stats.AddBuffer(entry.blocks, entry.size)
	}
}

func (r *remapRegistry) BuildStatsString(writer *jwriter.Writer) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s := writer.Array()
	defer s.End()

	for entry := r.entryListHead; entry != nil; entry = entry.next {
		o := s.Object()
		entry.printParameters(&o)
		o.End()
	}
}

func (r *remapRegistry) IsEmpty() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.count == 0
}

// Register records addr as a live remapping of the driver buffer id,
// backed by size bytes across blocks driver blocks.
func (r *remapRegistry) Register(addr uintptr, id uint64, size int, blocks int) {
	entry := entryAllocator.Get().(*remapEntry)
	entry.addr = addr
	entry.bufferID = id
	entry.size = size
	entry.blocks = blocks
	entry.prev = nil
	entry.next = nil

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.pushEntry(entry)
}

// TakeByAddress atomically locates and removes the entry for addr,
// returning the driver buffer id it recorded. The bool is false when addr
// is not a live remapping; a pointer can therefore be torn down by exactly
// one caller.
func (r *remapRegistry) TakeByAddress(addr uintptr) (uint64, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.entryIndex.Get(addr)
	if !ok {
		return 0, false
	}

	r.removeEntry(entry)

	id := entry.bufferID
	entryAllocator.Put(entry)

	return id, true
}

func (r *remapRegistry) removeEntry(entry *remapEntry) {
	prev := entry.prev
	next := entry.next

	if prev != nil {
		prev.next = next
	} else {
		r.entryListHead = next
	}

	if next != nil {
		next.prev = prev
	} else {
		r.entryListTail = prev
	}

	entry.prev = nil
	entry.next = nil

	r.count--
	r.entryIndex.Delete(entry.addr)
}

func (r *remapRegistry) pushEntry(entry *remapEntry) {
	if r.count == 0 {
		r.entryListHead = entry
		r.entryListTail = entry
		r.count = 1
	} else {
		entry.prev = r.entryListTail
		r.entryListTail.next = entry

		r.entryListTail = entry
		r.count++
	}

	r.entryIndex.Put(entry.addr, entry)
}
