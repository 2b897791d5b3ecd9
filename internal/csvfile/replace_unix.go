//go:build !windows

package csvfile

import "os"

// osReplace renames tmpPath over dest; atomic on POSIX filesystems.
func osReplace(tmpPath, dest string) error {
	return os.Rename(tmpPath, dest)
}

// syncDir fsyncs dir so the rename survives a crash. Best effort.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
