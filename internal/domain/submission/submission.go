package submission

import (
	"time"

	"github.com/google/uuid"
)

// Status is derived from the outputs/error fields, never stored.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Format is one of the two artifact formats the generator produces.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ParseFormat validates a raw query value against the supported formats.
func ParseFormat(raw string) (Format, bool) {
	switch Format(raw) {
	case FormatPDF:
		return FormatPDF, true
	case FormatDOCX:
		return FormatDOCX, true
	}
	return "", false
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return ContentTypePDF
	}
	return ContentTypeDOCX
}

// Outputs is written exactly once by the external generator; empty while the
// submission is pending.
type Outputs struct {
	DocxPath string `json:"docx_path,omitempty"`
	PDFPath  string `json:"pdf_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (o Outputs) PathFor(f Format) string {
	if f == FormatPDF {
		return o.PDFPath
	}
	return o.DocxPath
}

// Upload records metadata for a file part attached to a submission. The bytes
// themselves are forwarded to the generator, not stored here.
type Upload struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"type"`
	URL         string `json:"url,omitempty"`
}

// Submission is immutable once created except for Outputs, which the external
// generator writes by side channel.
type Submission struct {
	ID            uuid.UUID
	Product       string
	CustomerEmail string
	AccessCode    string
	Placeholders  map[string]string
	Uploads       map[string]Upload
	AIInput       map[string]string
	Outputs       Outputs
	CreatedAt     time.Time
}

// DeriveStatus implements the stored invariant: error wins, then ready iff at
// least one output path exists, otherwise pending.
func (s *Submission) DeriveStatus() Status {
	if s.Outputs.Error != "" {
		return StatusError
	}
	if s.Outputs.DocxPath != "" || s.Outputs.PDFPath != "" {
		return StatusReady
	}
	return StatusPending
}

type CreateInput struct {
	Product       string
	CustomerEmail string
	AccessCode    string
	Placeholders  map[string]string
	Uploads       map[string]Upload
	AIInput       map[string]string
}
