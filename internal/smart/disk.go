package smart

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"howett.net/plist"
)

// diskutilInfo is the subset of `diskutil info -plist` output we use.
type diskutilInfo struct {
	VolumeName                          string `plist:"VolumeName"`
	DeviceIdentifier                    string `plist:"DeviceIdentifier"`
	VolumeUUID                          string `plist:"VolumeUUID"`
	SmartStatus                         string `plist:"SmartStatus"`
	TotalSize                           uint64 `plist:"TotalSize"`
	ContainerTotalSize                  uint64 `plist:"ContainerTotalSize"`
	VolumeTotalSpace                    uint64 `plist:"VolumeTotalSpace"`
	AvailableSpaceForOpportunisticUsage uint64 `plist:"AvailableSpaceForOpportunisticUsage"`
	AvailableSpaceForImportantUsage     uint64 `plist:"AvailableSpaceForImportantUsage"`
	AvailableSpace                      uint64 `plist:"AvailableSpace"`
	ContainerFreeSpace                  uint64 `plist:"ContainerFreeSpace"`
	FreeSpace                           uint64 `plist:"FreeSpace"`
	VolumeFreeSpace                     uint64 `plist:"VolumeFreeSpace"`
}

func diskutilInfoPlist(target string) (diskutilInfo, error) {
	out, err := exec.Command("/usr/sbin/diskutil", "info", "-plist", target).Output()
	if err != nil {
		return diskutilInfo{}, fmt.Errorf("diskutil info %s failed: %w", target, err)
	}
	var info diskutilInfo
	if _, err := plist.Unmarshal(out, &info); err != nil {
		return diskutilInfo{}, fmt.Errorf("failed to decode diskutil plist: %w", err)
	}
	return info, nil
}

var wholeDiskRegex = regexp.MustCompile(`(disk\d+)`)

// WholeDisk reduces a slice identifier like disk3s1s1 to its whole
// disk, which is where SMART data lives.
func WholeDisk(deviceIdentifier string) string {
	cleaned := strings.TrimPrefix(deviceIdentifier, "/dev/")
	if m := wholeDiskRegex.FindStringSubmatch(cleaned); m != nil {
		return m[1]
	}
	if strings.HasPrefix(cleaned, "disk") && strings.Contains(cleaned, "s") {
		return cleaned[:strings.Index(cleaned, "s")]
	}
	return cleaned
}

// RootDiskDevice returns the whole-disk device node backing the root
// volume, e.g. /dev/disk0.
func RootDiskDevice() string {
	info, err := diskutilInfoPlist("/")
	if err != nil || info.DeviceIdentifier == "" {
		return "/dev/disk0"
	}
	return "/dev/" + WholeDisk(info.DeviceIdentifier)
}

type DiskUsage struct {
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

func usageFromInfo(info diskutilInfo) (DiskUsage, bool) {
	var total uint64
	for _, candidate := range []uint64{info.TotalSize, info.ContainerTotalSize, info.VolumeTotalSpace} {
		if candidate > 0 {
			total = candidate
			break
		}
	}
	var free uint64
	for _, candidate := range []uint64{
		info.AvailableSpaceForOpportunisticUsage,
		info.AvailableSpaceForImportantUsage,
		info.AvailableSpace,
		info.ContainerFreeSpace,
		info.FreeSpace,
		info.VolumeFreeSpace,
	} {
		if candidate > free {
			free = candidate
		}
	}
	if total == 0 || free == 0 || free > total {
		return DiskUsage{}, false
	}
	percent := (1.0 - float64(free)/float64(total)) * 100.0
	return DiskUsage{Total: total, Free: free, UsedPercent: percent}, true
}

var (
	usageMutex   sync.Mutex
	usageCached  DiskUsage
	usageErr     error
	usageCacheTS time.Time
)

// GetRootDiskUsage returns capacity for the root volume, preferring
// diskutil's APFS-aware numbers and falling back to df then statfs.
// The status line asks on every tick, so results are cached for 10s.
func GetRootDiskUsage() (DiskUsage, error) {
	now := time.Now()
	usageMutex.Lock()
	if !usageCacheTS.IsZero() && now.Sub(usageCacheTS) < 10*time.Second {
		usage, err := usageCached, usageErr
		usageMutex.Unlock()
		return usage, err
	}
	usageMutex.Unlock()

	usage, err := readRootDiskUsage()

	usageMutex.Lock()
	usageCached, usageErr = usage, err
	usageCacheTS = now
	usageMutex.Unlock()
	return usage, err
}

func readRootDiskUsage() (DiskUsage, error) {
	if info, err := diskutilInfoPlist("/"); err == nil {
		if usage, ok := usageFromInfo(info); ok {
			return usage, nil
		}
	}

	if out, err := exec.Command("/bin/df", "-k", "/").Output(); err == nil {
		if usage, ok := usageFromDF(string(out)); ok {
			return usage, nil
		}
	}

	stat, err := disk.Usage("/")
	if err != nil {
		return DiskUsage{}, fmt.Errorf("failed to stat root volume: %w", err)
	}
	return DiskUsage{Total: stat.Total, Free: stat.Free, UsedPercent: stat.UsedPercent}, nil
}

func usageFromDF(output string) (DiskUsage, bool) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return DiskUsage{}, false
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 5 {
		return DiskUsage{}, false
	}
	totalK, err1 := strconv.ParseUint(fields[1], 10, 64)
	freeK, err2 := strconv.ParseUint(fields[3], 10, 64)
	if err1 != nil || err2 != nil || totalK == 0 {
		return DiskUsage{}, false
	}
	total := totalK * 1024
	free := freeK * 1024
	percent := (1.0 - float64(free)/float64(total)) * 100.0
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return DiskUsage{Total: total, Free: free, UsedPercent: percent}, true
}
