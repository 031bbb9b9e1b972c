package tiler

import (
	"github.com/Ar3kkusu/android-hardware-ti-tiler/memutils"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// CalculateStatistics sums the live remappings this Remapper tracks.
func (r *Remapper) CalculateStatistics(stats *memutils.DetailedStatistics) {
	r.logger.Debug("Remapper::CalculateStatistics")

	stats.Clear()
	r.registry.AddDetailedStatistics(stats)
}

// BuildStatsString writes the remapper totals and every live remapping
// into a JSON document, for diagnostics.
func (r *Remapper) BuildStatsString() string {
	r.logger.Debug("Remapper::BuildStatsString")

	var stats memutils.DetailedStatistics
	stats.Clear()
	r.registry.AddDetailedStatistics(&stats)

	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("BufferCount").Int(stats.BufferCount)
	obj.Name("BlockCount").Int(stats.BlockCount)
	obj.Name("BufferBytes").Int(stats.BufferBytes)
	if stats.BufferCount > 0 {
		obj.Name("BufferSizeMin").Int(stats.BufferSizeMin)
		obj.Name("BufferSizeMax").Int(stats.BufferSizeMax)
	}
	r.registry.BuildStatsString(obj.Name("Buffers"))

	obj.End()
	return string(writer.Bytes())
}
