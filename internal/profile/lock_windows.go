//go:build windows

package profile

import "os"

// Windows has no flock; the exclusive create of the lock sentinel in
// paths.Ensure is the only guard there.
func tryLockFile(*os.File) (bool, error) { return true, nil }

func unlockFile(*os.File) {}
