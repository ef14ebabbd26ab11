package launcher

import (
	psproc "github.com/shirou/gopsutil/process"
)

// Usage is the resource usage of a process and its descendants.
type Usage struct {
	RSS uint64
	CPU float64
}

func usage(pid int) (Usage, error) {
	var u Usage
	p, err := psproc.NewProcess(int32(pid))
	if err != nil {
		return u, err
	}
	err = addUsage(&u, p, 0)
	return u, err
}

func addUsage(u *Usage, p *psproc.Process, depth int) error {
	mem, err := p.MemoryInfo()
	if err != nil {
		return err
	}
	u.RSS += mem.RSS
	if cpu, err := p.CPUPercent(); err == nil {
		u.CPU += cpu
	}
	if depth > 16 {
		return nil
	}
	children, _ := p.Children()
	for _, c := range children {
		// children may exit between listing and reading
		_ = addUsage(u, c, depth+1)
	}
	return nil
}
