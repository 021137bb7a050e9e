package model

import "time"

// CPU holds the share of CPU time spent in each state over one interval.
type CPU struct {
	User   float64 // percent 0-100
	Nice   float64
	System float64
	IOWait float64
	Steal  float64
	Idle   float64
}

// Memory captures RAM usage in kilobytes, the unit sar reports.
type Memory struct {
	FreeKB      uint64
	AvailKB     uint64
	UsedKB      uint64
	UsedPercent float64
	BuffersKB   uint64
	CachedKB    uint64
	CommitKB    uint64
	CommitPct   float64
	ActiveKB    uint64
	InactiveKB  uint64
	DirtyKB     uint64
}

// Swap captures swap usage in kilobytes.
type Swap struct {
	FreeKB        uint64
	UsedKB        uint64
	UsedPercent   float64
	CachedKB      uint64
	CachedPercent float64
}

// IO holds block device transfer rates summed over all devices.
type IO struct {
	TPS         float64
	ReadTPS     float64
	WriteTPS    float64
	BlocksRead  float64 // 512-byte blocks per second
	BlocksWrite float64
}

// Sample is one interval of the live capture, laid out the way sar groups it.
type Sample struct {
	Timestamp time.Time
	Interval  time.Duration
	CPU       CPU
	Memory    Memory
	Swap      Swap
	IO        IO
}

// Host identifies the machine a capture was taken on.
type Host struct {
	Kernel   string
	Hostname string
	Arch     string
	CPUs     int
}
