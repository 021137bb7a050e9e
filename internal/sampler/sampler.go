package sampler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

// sar counts transfers in 512-byte blocks.
const blockSize = 512

// Source reads raw counters from the host.
type Source interface {
	CPUTimes() (cpu.TimesStat, error)
	VirtualMemory() (*mem.VirtualMemoryStat, error)
	SwapMemory() (*mem.SwapMemoryStat, error)
	DiskIO() (map[string]disk.IOCountersStat, error)
	Host() (model.Host, error)
}

// Sampler periodically emits Samples built from counter deltas.
type Sampler struct {
	Interval time.Duration

	src      Source
	now      func() time.Time
	primed   bool
	prevCPU  cpu.TimesStat
	prevDisk map[string]disk.IOCountersStat
	prevAt   time.Time
	err      error
}

func New(interval time.Duration) *Sampler {
	return NewWithSource(interval, gopsutilSource{})
}

func NewWithSource(interval time.Duration, src Source) *Sampler {
	return &Sampler{
		Interval: interval,
		src:      src,
		now:      time.Now,
		prevDisk: make(map[string]disk.IOCountersStat),
	}
}

// Host describes the sampled machine.
func (s *Sampler) Host() (model.Host, error) { return s.src.Host() }

// Prime records the first counters; rates are computed against them.
func (s *Sampler) Prime() error {
	_, err := s.sample(s.now())
	return err
}

// Stream returns a channel that will receive snapshots until ctx is done.
// A read error ends the stream and is reported by Err.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Sample {
	ch := make(chan model.Sample)
	s.err = nil
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		defer close(ch)
		if !s.primed {
			if err := s.Prime(); err != nil {
				s.err = err
				return
			}
		}
		for {
			select {
			case t := <-ticker.C:
				samp, err := s.sample(t)
				if err != nil {
					s.err = err
					return
				}
				select {
				case ch <- samp:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Err returns the error that ended the last stream, if any. It is only
// meaningful once the stream channel is closed.
func (s *Sampler) Err() error { return s.err }

// Collect takes n samples, one per interval, from a stream.
func (s *Sampler) Collect(ctx context.Context, n int) ([]model.Sample, error) {
	if n <= 0 {
		return nil, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	ch := s.Stream(ctx)
	defer func() {
		cancel()
		for range ch {
		}
	}()

	out := make([]model.Sample, 0, n)
	for samp := range ch {
		out = append(out, samp)
		if len(out) == n {
			return out, nil
		}
	}
	if err := s.Err(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}

func (s *Sampler) sample(now time.Time) (model.Sample, error) {
	times, err := s.src.CPUTimes()
	if err != nil {
		return model.Sample{}, fmt.Errorf("cpu times: %w", err)
	}
	vm, err := s.src.VirtualMemory()
	if err != nil {
		return model.Sample{}, fmt.Errorf("virtual memory: %w", err)
	}
	sw, err := s.src.SwapMemory()
	if err != nil {
		return model.Sample{}, fmt.Errorf("swap memory: %w", err)
	}
	counters, err := s.src.DiskIO()
	if err != nil {
		return model.Sample{}, fmt.Errorf("disk counters: %w", err)
	}

	elapsed := s.Interval
	if s.primed {
		elapsed = now.Sub(s.prevAt)
	}

	samp := model.Sample{
		Timestamp: now,
		Interval:  elapsed,
		CPU:       s.cpuPercents(times),
		Memory:    memory(vm, sw),
		Swap:      swap(vm, sw),
		IO:        s.diskRates(counters, elapsed),
	}
	s.prevAt = now
	s.primed = true
	return samp, nil
}

// CPU percentages from times delta.
func (s *Sampler) cpuPercents(cur cpu.TimesStat) model.CPU {
	prev := s.prevCPU
	s.prevCPU = cur
	if !s.primed {
		return model.CPU{}
	}

	dt := cur.Total() - prev.Total()
	if dt <= 0 {
		return model.CPU{Idle: 100}
	}
	share := func(c, p float64) float64 {
		d := c - p
		if d < 0 {
			return 0
		}
		return 100 * d / dt
	}
	return model.CPU{
		User:   share(cur.User, prev.User),
		Nice:   share(cur.Nice, prev.Nice),
		System: share(cur.System, prev.System),
		IOWait: share(cur.Iowait, prev.Iowait),
		Steal:  share(cur.Steal, prev.Steal),
		Idle:   share(cur.Idle, prev.Idle),
	}
}

func memory(vm *mem.VirtualMemoryStat, sw *mem.SwapMemoryStat) model.Memory {
	m := model.Memory{
		FreeKB:      vm.Free / 1024,
		AvailKB:     vm.Available / 1024,
		UsedKB:      vm.Used / 1024,
		UsedPercent: vm.UsedPercent,
		BuffersKB:   vm.Buffers / 1024,
		CachedKB:    vm.Cached / 1024,
		CommitKB:    vm.CommittedAS / 1024,
		ActiveKB:    vm.Active / 1024,
		InactiveKB:  vm.Inactive / 1024,
		DirtyKB:     vm.Dirty / 1024,
	}
	if total := vm.Total + sw.Total; total > 0 {
		m.CommitPct = 100 * float64(vm.CommittedAS) / float64(total)
	}
	return m
}

func swap(vm *mem.VirtualMemoryStat, sw *mem.SwapMemoryStat) model.Swap {
	s := model.Swap{
		FreeKB:   sw.Free / 1024,
		UsedKB:   sw.Used / 1024,
		CachedKB: vm.SwapCached / 1024,
	}
	if sw.Total > 0 {
		s.UsedPercent = 100 * float64(sw.Used) / float64(sw.Total)
	}
	if sw.Used > 0 {
		s.CachedPercent = 100 * float64(vm.SwapCached) / float64(sw.Used)
	}
	return s
}

func (s *Sampler) diskRates(counters map[string]disk.IOCountersStat, elapsed time.Duration) model.IO {
	var reads, writes, rdBytes, wrBytes uint64
	primed := s.primed
	for name, st := range counters {
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") {
			continue
		}
		prev, ok := s.prevDisk[name]
		s.prevDisk[name] = st
		if !ok || !primed {
			continue
		}
		reads += delta(st.ReadCount, prev.ReadCount)
		writes += delta(st.WriteCount, prev.WriteCount)
		rdBytes += delta(st.ReadBytes, prev.ReadBytes)
		wrBytes += delta(st.WriteBytes, prev.WriteBytes)
	}

	dt := elapsed.Seconds()
	if dt <= 0 {
		dt = 1
	}
	return model.IO{
		TPS:         float64(reads+writes) / dt,
		ReadTPS:     float64(reads) / dt,
		WriteTPS:    float64(writes) / dt,
		BlocksRead:  float64(rdBytes) / blockSize / dt,
		BlocksWrite: float64(wrBytes) / blockSize / dt,
	}
}

func delta(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

type gopsutilSource struct{}

func (gopsutilSource) CPUTimes() (cpu.TimesStat, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return cpu.TimesStat{}, err
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, fmt.Errorf("no cpu times reported")
	}
	return times[0], nil
}

func (gopsutilSource) VirtualMemory() (*mem.VirtualMemoryStat, error) { return mem.VirtualMemory() }

func (gopsutilSource) SwapMemory() (*mem.SwapMemoryStat, error) { return mem.SwapMemory() }

func (gopsutilSource) DiskIO() (map[string]disk.IOCountersStat, error) { return disk.IOCounters() }

func (gopsutilSource) Host() (model.Host, error) {
	info, err := host.Info()
	if err != nil {
		return model.Host{}, err
	}
	n, err := cpu.Counts(true)
	if err != nil {
		n = 0
	}
	return model.Host{
		Kernel:   info.KernelVersion,
		Hostname: info.Hostname,
		Arch:     info.KernelArch,
		CPUs:     n,
	}, nil
}
