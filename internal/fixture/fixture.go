// Package fixture holds a known record in memory for a fixed time so an
// external reader can find it.
package fixture

import (
	"fmt"
	"runtime"
	"time"

	"github.com/zouuup/memtarget/internal/inspector"
	"github.com/zouuup/memtarget/internal/output"
	"github.com/zouuup/memtarget/internal/record"
	"github.com/zouuup/memtarget/internal/syscall"
)

// DefaultHold is how long the record is kept alive
const DefaultHold = 10 * time.Second

// Config controls a single run. The zero value holds for DefaultHold.
type Config struct {
	Hold   time.Duration
	Lock   bool // pin the record's page with mlock
	Locate bool // report the record's address and mapping
}

// Replaced in tests
var (
	readMemory = syscall.ReadMemory
	unlock     = syscall.Unlock
)

func (c Config) hold() time.Duration {
	if c.Hold == 0 {
		return DefaultHold
	}
	return c.Hold
}

// Run constructs the record, announces the PID and blocks for the hold
// duration. There is no cancellation; only process termination ends the
// hold early.
func Run(cfg Config, out *output.OutputManager) error {
	if cfg.Hold < 0 {
		return fmt.Errorf("invalid hold duration %s: must not be negative", cfg.Hold)
	}

	rec := record.New()

	out.Announce(syscall.Getpid())
	out.Notice()

	if cfg.Locate {
		locate(rec, out)
	}

	if cfg.Lock {
		if err := syscall.Lock(rec.Bytes()); err != nil {
			out.Warning(fmt.Sprintf("Failed to lock record at %#x: %v", rec.Addr(), err))
		} else {
			out.Locked(rec.Addr())
			defer func() {
				err := unlock(rec.Bytes())
				if err != nil && out.IsVerbose() {
					out.Warning(fmt.Sprintf("Failed to unlock record at %#x: %v", rec.Addr(), err))
				}
			}()
		}
	}

	hold := cfg.hold()
	out.Holding(hold)

	start := time.Now()
	time.Sleep(hold)
	out.Done(time.Since(start))

	runtime.KeepAlive(rec)
	return nil
}

// locate reports the mapping holding rec and checks the record through the
// same process_vm_readv view an external reader gets
func locate(rec *record.Record, out *output.OutputManager) {
	pid := syscall.Getpid()

	region, err := inspector.Locate(pid, uint64(rec.Addr()))
	if err != nil {
		out.Warning(fmt.Sprintf("Failed to locate record at %#x: %v", rec.Addr(), err))
		return
	}

	verified, err := verify(pid, rec.Addr())
	out.Located(rec.Addr(), record.Size, region, verified)

	if err != nil {
		out.Warning(fmt.Sprintf("Failed to read back record at %#x: %v", rec.Addr(), err))
	} else if !verified {
		out.Error(fmt.Sprintf("Record at %#x does not hold the fixed values", rec.Addr()))
	}
}

// verify reads a record image at addr in pid and checks its fields
func verify(pid int, addr uintptr) (bool, error) {
	data, err := readMemory(pid, addr, record.Size)
	if err != nil {
		return false, err
	}
	got, err := record.Decode(data)
	if err != nil {
		return false, err
	}
	return got.Valid(), nil
}
