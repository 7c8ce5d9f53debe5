//go:build unix

package realmd

import (
	"strconv"

	"golang.org/x/sys/unix"
)

func userRunDir() string {
	return "/run/user/" + strconv.Itoa(unix.Getuid())
}
