package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

type CSVFormatter struct{}

// Format writes one row per artifact.
func (c *CSVFormatter) Format(w io.Writer, data Data) error {
	writer := csv.NewWriter(w)

	header := []string{
		"Timestamp",
		"RunID",
		"Role",
		"Path",
		"Size",
		"Mode",
		"SHA256",
		"KeyBits",
		"KeySource",
		"PayloadSize",
		"Verified",
	}

	if err := writer.Write(header); err != nil {
		return err
	}

	r := data.Report
	for _, a := range r.Artifacts {
		row := []string{
			a.WrittenAt.Format(time.RFC3339),
			r.RunID,
			string(a.Role),
			a.Path,
			fmt.Sprintf("%d", a.Size),
			a.Mode,
			a.SHA256,
			fmt.Sprintf("%d", r.KeyBits),
			string(r.KeySource),
			fmt.Sprintf("%d", r.PayloadSize),
			strconv.FormatBool(r.Verified),
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
