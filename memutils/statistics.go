package memutils

import "math"

// Statistics summarizes a population of mapped buffers and the driver
// blocks that back them.
type Statistics struct {
	BufferCount int
	BlockCount  int
	BufferBytes int
}

func (s *Statistics) Clear() {
	s.BufferCount = 0
	s.BlockCount = 0
	s.BufferBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BufferCount += other.BufferCount
	s.BlockCount += other.BlockCount
	s.BufferBytes += other.BufferBytes
}

type DetailedStatistics struct {
	Statistics
	BufferSizeMin int
	BufferSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.BufferSizeMin = math.MaxInt
	s.BufferSizeMax = 0
}

// AddBuffer folds a single buffer of the given byte size, composed of
// blockCount driver blocks, into the detailed totals.
func (s *DetailedStatistics) AddBuffer(blockCount, size int) {
	s.BufferCount++
	s.BlockCount += blockCount
	s.BufferBytes += size

	if size < s.BufferSizeMin {
		s.BufferSizeMin = size
	}

	if size > s.BufferSizeMax {
		s.BufferSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)

	if other.BufferSizeMin < s.BufferSizeMin {
		s.BufferSizeMin = other.BufferSizeMin
	}

	if other.BufferSizeMax > s.BufferSizeMax {
		s.BufferSizeMax = other.BufferSizeMax
	}
}
