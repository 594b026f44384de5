//go:build !unix

package handlers

// diskUsage is not reported on this platform.
func diskUsage(path string) storageStats {
	return storageStats{}
}
