package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/zouuup/memtarget/internal/inspector"
)

// Notice is printed after the PID line. It names no particular inspector.
const Notice = "Holding values in memory. You may inspect them with an external memory reader."

// PIDLabel prefixes the PID line in text mode
const PIDLabel = "Test PID"

// OutputManager handles formatted output for the CLI
type OutputManager struct {
	verbose bool
	json    bool
	stdout  io.Writer
	stderr  io.Writer
	writer  *tabwriter.Writer
}

// New creates a new OutputManager writing to stdout and stderr
func New(stdout, stderr io.Writer, verbose bool, jsonOutput bool) *OutputManager {
	writer := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	return &OutputManager{
		verbose: verbose,
		json:    jsonOutput,
		stdout:  stdout,
		stderr:  stderr,
		writer:  writer,
	}
}

// IsVerbose returns whether verbose output is enabled
func (o *OutputManager) IsVerbose() bool {
	return o.verbose
}

// Announce outputs the process identifier
func (o *OutputManager) Announce(pid int) {
	if o.json {
		o.outputJSON(map[string]interface{}{"pid": pid})
		return
	}

	fmt.Fprintf(o.stdout, "%s: %d\n", PIDLabel, pid)
}

// Notice outputs the fixed notice line
func (o *OutputManager) Notice() {
	if o.json {
		o.outputJSON(map[string]interface{}{"notice": Notice})
		return
	}

	fmt.Fprintln(o.stdout, Notice)
}

// Located outputs where the record lives and whether reading it back matched
func (o *OutputManager) Located(addr uintptr, size int, region inspector.MemoryRegion, verified bool) {
	if o.json {
		o.outputJSON(map[string]interface{}{
			"address":      fmt.Sprintf("%#x", addr),
			"size":         size,
			"region_start": fmt.Sprintf("%#x", region.Start),
			"region_end":   fmt.Sprintf("%#x", region.End),
			"region_prot":  region.Prot,
			"region":       region.Name(),
			"verified":     verified,
		})
		return
	}

	state := "verified"
	if !verified {
		state = "unverified"
	}

	fmt.Fprintf(o.writer, "Record:\t%#x\t%s\tin %016x-%016x\t%s\t%s\t%s\t%s\n",
		addr, formatBytes(int64(size)), region.Start, region.End,
		formatBytes(int64(region.Size)), region.Prot, region.Name(), state)
	o.writer.Flush()
}

// Locked outputs that the record's pages are pinned
func (o *OutputManager) Locked(addr uintptr) {
	if o.json || !o.verbose {
		return
	}

	fmt.Fprintf(o.writer, "Locked:\t%#x\n", addr)
	o.writer.Flush()
}

// Holding outputs the hold duration before blocking
func (o *OutputManager) Holding(d time.Duration) {
	if o.json || !o.verbose {
		return
	}

	fmt.Fprintf(o.writer, "Holding:\t%s\n", d)
	o.writer.Flush()
}

// Done outputs the observed hold time
func (o *OutputManager) Done(elapsed time.Duration) {
	if !o.verbose {
		return
	}
	if o.json {
		o.outputJSON(map[string]interface{}{"held_ms": elapsed.Milliseconds()})
		return
	}

	fmt.Fprintf(o.writer, "Released:\tafter %s\n", elapsed.Round(time.Millisecond))
	o.writer.Flush()
}

// Warning outputs a non-fatal problem
func (o *OutputManager) Warning(msg string) {
	if o.json {
		o.outputJSON(map[string]interface{}{"warning": msg})
		return
	}

	fmt.Fprintf(o.stderr, "Warning: %s\n", msg)
}

// Error outputs an error message
func (o *OutputManager) Error(msg string) {
	if o.json {
		o.outputJSON(map[string]interface{}{"error": msg})
		return
	}

	fmt.Fprintf(o.stderr, "Error: %s\n", msg)
}

// outputJSON marshals and outputs JSON data
func (o *OutputManager) outputJSON(data map[string]interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintf(o.stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Fprintln(o.stdout, string(jsonData))
}

// formatBytes formats a byte count as a human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
