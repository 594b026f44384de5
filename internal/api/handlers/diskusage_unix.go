//go:build unix

package handlers

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// diskUsage reports the filesystem holding path. Errors yield zeros.
func diskUsage(path string) storageStats {
	var st storageStats
	if path == "" {
		return st
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return st
	}
	st.Total = stat.Blocks * uint64(stat.Bsize)
	st.Free = stat.Bavail * uint64(stat.Bsize)
	st.Used = st.Total - st.Free
	st.TotalText = humanize.IBytes(st.Total)
	st.FreeText = humanize.IBytes(st.Free)
	return st
}
