package inspector

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrAddressNotMapped is returned when an address lies outside every mapping
var ErrAddressNotMapped = errors.New("address not mapped")

// ErrProcessNotFound is returned when /proc has no entry for the PID
var ErrProcessNotFound = errors.New("process does not exist or is not accessible")

// MemoryRegion represents a mapped memory region with its properties
type MemoryRegion struct {
	Start      uint64
	End        uint64
	Size       uint64
	Prot       string
	Anonymous  bool
	Private    bool
	Writable   bool
	Executable bool
	Path       string
}

// Contains reports whether addr falls inside the region
func (r MemoryRegion) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Name returns the mapping path, or [anon] for unnamed mappings
func (r MemoryRegion) Name() string {
	if r.Path == "" {
		return "[anon]"
	}
	return r.Path
}

// PidExists checks if a process with the given PID exists and is accessible
func PidExists(pid int) bool {
	procPath := fmt.Sprintf("/proc/%d", pid)
	_, err := os.Stat(procPath)
	return err == nil
}

// Regions returns every mapping of the process, in address order
func Regions(pid int) ([]MemoryRegion, error) {
	var regions []MemoryRegion

	mapsPath := fmt.Sprintf("/proc/%d/maps", pid)
	file, err := os.Open(mapsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open maps file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		region, err := parseMapLine(scanner.Text())
		if err != nil {
			continue // Skip lines we can't parse
		}
		regions = append(regions, region)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading maps file: %w", err)
	}

	return regions, nil
}

// FindRegion returns the region containing addr
func FindRegion(regions []MemoryRegion, addr uint64) (MemoryRegion, error) {
	for _, region := range regions {
		if region.Contains(addr) {
			return region, nil
		}
	}
	return MemoryRegion{}, fmt.Errorf("%#x: %w", addr, ErrAddressNotMapped)
}

// Locate finds the mapping of pid that holds addr
func Locate(pid int, addr uint64) (MemoryRegion, error) {
	if !PidExists(pid) {
		return MemoryRegion{}, fmt.Errorf("process %d: %w", pid, ErrProcessNotFound)
	}

	regions, err := Regions(pid)
	if err != nil {
		return MemoryRegion{}, err
	}
	return FindRegion(regions, addr)
}

// parseMapLine parses a line from /proc/[pid]/maps
func parseMapLine(line string) (MemoryRegion, error) {
	var region MemoryRegion

	parts := strings.Fields(line)
	if len(parts) < 5 {
		return region, fmt.Errorf("invalid maps line format: %s", line)
	}

	// Address range is "start-end" in hex
	addrRange := strings.Split(parts[0], "-")
	if len(addrRange) != 2 {
		return region, fmt.Errorf("invalid address range format: %s", parts[0])
	}

	start, err := strconv.ParseUint(addrRange[0], 16, 64)
	if err != nil {
		return region, fmt.Errorf("invalid start address: %s", addrRange[0])
	}

	end, err := strconv.ParseUint(addrRange[1], 16, 64)
	if err != nil {
		return region, fmt.Errorf("invalid end address: %s", addrRange[1])
	}
	if end < start {
		return region, fmt.Errorf("inverted address range: %s", parts[0])
	}

	perms := parts[1]
	if len(perms) < 4 {
		return region, fmt.Errorf("invalid permissions format: %s", perms)
	}

	path := ""
	if len(parts) >= 6 {
		path = strings.Join(parts[5:], " ")
	}

	region = MemoryRegion{
		Start:      start,
		End:        end,
		Size:       end - start,
		Prot:       perms,
		Writable:   perms[1] == 'w',
		Executable: perms[2] == 'x',
		Private:    perms[3] == 'p',
		Anonymous:  path == "" || path == "[anon]" || path == "[heap]" || strings.HasPrefix(path, "[stack"),
		Path:       path,
	}

	return region, nil
}
