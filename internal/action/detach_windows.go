//go:build windows

package action

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}
