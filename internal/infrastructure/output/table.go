package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/reglet-dev/scannode/internal/domain/execution"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// TableFormatter formats results as a human-readable table.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true, // Default to true, caller can disable
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

func (f *TableFormatter) rule() string {
	return f.colorize(strings.Repeat("─", 80), colorGray)
}

// FormatCycles writes one block per cycle, oldest first.
//
//nolint:errcheck // Table formatting errors are non-critical (best-effort terminal output)
func (f *TableFormatter) FormatCycles(results []*execution.CycleResult) error {
	if len(results) == 0 {
		fmt.Fprintln(f.writer, "No cycles recorded.")
		return nil
	}

	fmt.Fprintln(f.writer, f.colorize("Cycles:", colorBold))
	fmt.Fprintln(f.writer, f.rule())
	for _, r := range results {
		f.formatCycle(r)
	}
	fmt.Fprintln(f.writer, f.rule())

	reported, abandoned, lines := 0, 0, 0
	for _, r := range results {
		switch r.Outcome() {
		case "reported":
			reported++
		case "abandoned":
			abandoned++
		}
		lines += r.LinesSent
	}
	fmt.Fprintf(f.writer, "Total: %d cycles, %s, %s, %d lines sent\n",
		len(results),
		f.colorize(fmt.Sprintf("%d reported", reported), colorGreen),
		f.colorize(fmt.Sprintf("%d abandoned", abandoned), colorRed),
		lines,
	)
	return nil
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatCycle(r *execution.CycleResult) {
	symbol, color := f.outcomeInfo(r.Outcome())
	fmt.Fprintf(f.writer, "%s %s  %s  wake=%s  %s\n",
		f.colorize(symbol, color),
		r.ID.Short(),
		r.StartTime.Format(time.RFC3339),
		r.Cause,
		f.colorize(r.Outcome(), color),
	)

	if r.ErrorKind.IsFatalToCycle() {
		fmt.Fprintf(f.writer, "  %s: [%s] %s\n", f.colorize("Error", colorRed), r.ErrorKind, r.ErrorMessage)
	}
	for _, s := range r.Symbols {
		if s.OK() {
			fmt.Fprintf(f.writer, "  #%d %q\n", s.Index, s.Payload)
		} else {
			fmt.Fprintf(f.writer, "  #%d %s %s\n", s.Index, f.colorize(string(s.Status), colorYellow), s.Detail)
		}
	}
	if !r.Armed {
		fmt.Fprintf(f.writer, "  %s: %s\n", f.colorize("Wake source not armed", colorRed), r.ArmError)
	}
	for _, v := range r.Violations {
		fmt.Fprintf(f.writer, "  %s: %s\n", f.colorize("Violation", colorRed), v)
	}
	fmt.Fprintf(f.writer, "  Lines: %d  Duration: %s\n", r.LinesSent, r.Duration.Round(time.Millisecond))
}

func (f *TableFormatter) outcomeInfo(outcome string) (string, string) {
	switch outcome {
	case "reported":
		return "✓", colorGreen
	case "abandoned":
		return "✗", colorRed
	case "no_symbols":
		return "○", colorYellow
	default:
		return "·", colorGray
	}
}

// FormatStatus writes the node status.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatStatus(s *NodeStatus) error {
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "Node: %s\n", f.colorize(s.NodeID, colorBold))
	fmt.Fprintf(f.writer, "State: %s\n", s.StateDir)
	if s.FirmwareVersion == "" {
		fmt.Fprintln(f.writer, "Never booted.")
		fmt.Fprintln(f.writer, f.rule())
		return nil
	}

	fmt.Fprintf(f.writer, "Firmware: %s\n", s.FirmwareVersion)
	fmt.Fprintf(f.writer, "Boots: %d\n", s.BootCount)
	fmt.Fprintf(f.writer, "Last wake: %s\n", s.LastWakeCause)

	if s.Sleeping {
		fmt.Fprintf(f.writer, "Power: %s since %s\n", f.colorize("sleeping", colorGreen), s.SleptAt.Format(time.RFC3339))
	} else {
		fmt.Fprintf(f.writer, "Power: %s\n", f.colorize("awake", colorYellow))
	}

	if s.Armed != nil {
		fmt.Fprintf(f.writer, "Wake pin: %s (level now %s)\n", s.Armed.String(), s.PinLevel)
	} else {
		fmt.Fprintf(f.writer, "Wake pin: %s\n", f.colorize("not armed", colorRed))
	}
	if s.Triggered {
		fmt.Fprintln(f.writer, f.colorize("Trigger pending: next boot will scan", colorBold))
	}

	if len(s.History) > 0 {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, f.colorize("Recent cycles:", colorBold))
		for _, c := range s.History {
			symbol, color := f.outcomeInfo(c.Outcome)
			short := c.ID
			if len(short) > 8 {
				short = short[:8]
			}
			fmt.Fprintf(f.writer, "  %s %s  %s  wake=%s  %s  symbols=%d/%d  lines=%d\n",
				f.colorize(symbol, color), short, c.StartedAt.Format(time.RFC3339),
				c.Cause, c.Outcome, c.Decoded, c.Symbols, c.LinesSent)
		}
	}
	fmt.Fprintln(f.writer, f.rule())
	return nil
}
