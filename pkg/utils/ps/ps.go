// Package ps reports host load for the status endpoint.
package ps

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type CPU struct {
	Percent float64 `json:"percent"`
}

type Memory struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`

	SwapTotal       uint64  `json:"swapTotal"`
	SwapUsed        uint64  `json:"swapUsed"`
	SwapUsedPercent float64 `json:"swapUsedPercent"`
}

type Disk struct {
	Path        string  `json:"path"`
	Used        string  `json:"used"`
	Total       string  `json:"total"`
	UsedPercent float64 `json:"usedPercent"`
	DirSize     string  `json:"dirSize"`
}

type Status struct {
	CPU    CPU    `json:"cpu"`
	Memory Memory `json:"memory"`
	Disk   Disk   `json:"disk"`
}

func CPUStatus() (CPU, error) {
	list, err := cpu.Percent(time.Millisecond*50, false)
	if err != nil {
		return CPU{}, err
	}
	if len(list) == 0 {
		return CPU{}, nil
	}

	return CPU{
		Percent: list[0],
	}, nil
}

func MemoryStatus() (Memory, error) {
	memory, err := mem.VirtualMemory()
	if err != nil {
		return Memory{}, err
	}
	swapMemory, err := mem.SwapMemory()
	if err != nil {
		return Memory{}, err
	}

	return Memory{
		Total:       memory.Total,
		Used:        memory.Used,
		UsedPercent: memory.UsedPercent,

		SwapTotal:       swapMemory.Total,
		SwapUsed:        swapMemory.Used,
		SwapUsedPercent: swapMemory.UsedPercent,
	}, nil
}

// DiskStatus reports usage of the filesystem holding path and the size of
// everything stored under path.
func DiskStatus(path string) (Disk, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return Disk{}, err
	}
	size, err := DirDiskUsage(path)
	if err != nil {
		return Disk{}, err
	}

	return Disk{
		Path:        path,
		Used:        humanize.Bytes(usage.Used),
		Total:       humanize.Bytes(usage.Total),
		UsedPercent: usage.UsedPercent,
		DirSize:     humanize.Bytes(uint64(size)),
	}, nil
}

func DirDiskUsage(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return size, nil
}

func GetStatus(path string) (Status, error) {
	c, err := CPUStatus()
	if err != nil {
		return Status{}, err
	}
	m, err := MemoryStatus()
	if err != nil {
		return Status{}, err
	}
	d, err := DiskStatus(path)
	if err != nil {
		return Status{}, err
	}

	return Status{CPU: c, Memory: m, Disk: d}, nil
}
