package output

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// shortHashLen is how much of each SHA-256 the table shows.
const shortHashLen = 16

type TableFormatter struct{}

func (t *TableFormatter) Format(w io.Writer, data Data) error {
	r := data.Report

	fmt.Fprintln(w, "\nRound Trip Report")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	if r.Host != nil {
		fmt.Fprintf(w, "Host: %s (%s/%s, %d cores)\n", r.Host.Hostname, r.Host.OS, r.Host.Architecture, r.Host.CPUCores)
	}
	fmt.Fprintln(w)

	table := newTable(w, []string{"Role", "Path", "Size", "Mode", "SHA-256"})
	for _, a := range r.Artifacts {
		hash := a.SHA256
		if len(hash) > shortHashLen {
			hash = hash[:shortHashLen] + "…"
		}
		table.Append([]string{
			string(a.Role),
			a.Path,
			fmt.Sprintf("%d", a.Size),
			a.Mode,
			hash,
		})
	}
	table.Render()

	fmt.Fprintln(w)
	steps := newTable(w, []string{"Step", "Duration"})
	for _, timing := range r.Timings {
		steps.Append([]string{timing.Step, formatDuration(timing.Duration)})
	}
	steps.Render()

	fmt.Fprintln(w, "\nSummary")
	fmt.Fprintln(w, "-------")
	fmt.Fprintf(w, "Key: RSA-%d (%s)\n", r.KeyBits, r.KeySource)
	fmt.Fprintf(w, "Payload: %d bytes from %s (limit %d)\n", r.PayloadSize, r.InputSource, r.MaxPayloadSize)
	fmt.Fprintf(w, "Ciphertext: %d bytes\n", r.CiphertextSize)
	fmt.Fprintf(w, "Total time: %s\n", formatDuration(r.TotalTime))
	if r.Verified {
		fmt.Fprintln(w, "Verification: passed")
	} else {
		fmt.Fprintln(w, "Verification: not run")
	}

	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000)
	} else if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.2fm", d.Minutes())
}
