package roundtrip

import (
	"time"

	"github.com/user/rsacheck/internal/payload"
	"github.com/user/rsacheck/internal/storage"
	"github.com/user/rsacheck/pkg/sysinfo"
)

// KeySource tells whether the private key was generated or read from disk.
type KeySource string

const (
	KeyGenerated KeySource = "generated"
	KeyLoaded    KeySource = "loaded"
)

// Step names recorded in Report.Timings.
const (
	StepLoadInput   = "load-input"
	StepGenerateKey = "generate-key"
	StepLoadKey     = "load-key"
	StepEncrypt     = "encrypt"
	StepPersist     = "persist"
	StepVerify      = "verify"
)

type StepTiming struct {
	Step     string        `json:"step"`
	Duration time.Duration `json:"duration"`
}

type Report struct {
	RunID          string             `json:"run_id"`
	StartedAt      time.Time          `json:"started_at"`
	KeyBits        int                `json:"key_bits"`
	KeySource      KeySource          `json:"key_source"`
	InputSource    payload.Source     `json:"input_source"`
	PayloadSize    int                `json:"payload_size"`
	MaxPayloadSize int                `json:"max_payload_size"`
	CiphertextSize int                `json:"ciphertext_size"`
	Artifacts      []storage.Artifact `json:"artifacts"`
	Timings        []StepTiming       `json:"timings"`
	TotalTime      time.Duration      `json:"total_time"`
	Verified       bool               `json:"verified"`
	Host           *sysinfo.HostInfo  `json:"host,omitempty"`
}
