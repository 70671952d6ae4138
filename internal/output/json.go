package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/user/rsacheck/internal/roundtrip"
	"github.com/user/rsacheck/internal/storage"
	"github.com/user/rsacheck/pkg/sysinfo"
)

type JSONFormatter struct{}

type JSONOutput struct {
	Timestamp time.Time `json:"timestamp"`
	Run       struct {
		ID          string              `json:"id"`
		StartedAt   time.Time           `json:"started_at"`
		KeyBits     int                 `json:"key_bits"`
		KeySource   roundtrip.KeySource `json:"key_source"`
		InputSource string              `json:"input_source"`
		Host        *sysinfo.HostInfo   `json:"host,omitempty"`
	} `json:"run"`
	Config    any                    `json:"config"`
	Artifacts []storage.Artifact     `json:"artifacts"`
	Timings   []roundtrip.StepTiming `json:"timings"`
	Summary   struct {
		PayloadSize     int           `json:"payload_size"`
		MaxPayloadSize  int           `json:"max_payload_size"`
		CiphertextSize  int           `json:"ciphertext_size"`
		TotalTime       time.Duration `json:"total_time"`
		TotalTimeString string        `json:"total_time_string"`
		Verified        bool          `json:"verified"`
	} `json:"summary"`
}

func (j *JSONFormatter) Format(w io.Writer, data Data) error {
	r := data.Report

	output := JSONOutput{
		Timestamp: time.Now(),
		Config:    data.Config,
		Artifacts: r.Artifacts,
		Timings:   r.Timings,
	}

	output.Run.ID = r.RunID
	output.Run.StartedAt = r.StartedAt
	output.Run.KeyBits = r.KeyBits
	output.Run.KeySource = r.KeySource
	output.Run.InputSource = string(r.InputSource)
	output.Run.Host = r.Host

	output.Summary.PayloadSize = r.PayloadSize
	output.Summary.MaxPayloadSize = r.MaxPayloadSize
	output.Summary.CiphertextSize = r.CiphertextSize
	output.Summary.TotalTime = r.TotalTime
	output.Summary.TotalTimeString = r.TotalTime.String()
	output.Summary.Verified = r.Verified

	if output.Artifacts == nil {
		output.Artifacts = []storage.Artifact{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
