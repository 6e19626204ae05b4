package syscall

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Getpid returns the process identifier of the caller
func Getpid() int {
	return unix.Getpid()
}

// ReadMemory reads n bytes at addr from the address space of pid.
// process_vm_readv is tried first; /proc/<pid>/mem is used when the syscall
// is missing or filtered.
func ReadMemory(pid int, addr uintptr, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, n)
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(n)
	remote := []unix.RemoteIovec{{Base: addr, Len: n}}

	read, err := unix.ProcessVMReadv(pid, local, remote, 0)
	if err == nil {
		if read != n {
			return nil, fmt.Errorf("short read from process %d at %#x: %d of %d bytes", pid, addr, read, n)
		}
		return buf, nil
	}
	if !errors.Is(err, unix.ENOSYS) && !errors.Is(err, unix.EPERM) {
		return nil, fmt.Errorf("process_vm_readv on process %d at %#x failed: %w", pid, addr, err)
	}

	return readProcMem(pid, addr, buf)
}

func readProcMem(pid int, addr uintptr, buf []byte) ([]byte, error) {
	memPath := fmt.Sprintf("/proc/%d/mem", pid)
	file, err := os.Open(memPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", memPath, err)
	}
	defer file.Close()

	if _, err := file.ReadAt(buf, int64(addr)); err != nil {
		return nil, fmt.Errorf("failed to read %s at %#x: %w", memPath, addr, err)
	}

	return buf, nil
}

// Lock pins the pages holding b in RAM. The kernel rounds the range out to
// page boundaries.
func Lock(b []byte) error {
	if err := unix.Mlock(b); err != nil {
		return fmt.Errorf("mlock failed: %w", err)
	}
	return nil
}

// Unlock releases pages pinned by Lock
func Unlock(b []byte) error {
	if err := unix.Munlock(b); err != nil {
		return fmt.Errorf("munlock failed: %w", err)
	}
	return nil
}
