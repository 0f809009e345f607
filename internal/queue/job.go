// Package queue implements the asynq-backed job consumer that lets callers
// submit batch extraction work through a Redis-backed queue instead of
// calling the Engine in-process, plus a lightweight raw-Redis distributed
// lock used to keep two worker processes from redundantly extracting the
// same file concurrently.
package queue

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/adverant/kreuzberg/internal/extract"
)

// TaskTypeExtract is the asynq task type name for a single extraction job.
const TaskTypeExtract = "kreuzberg:extract"

// ExtractPayload is the JSON body of a kreuzberg:extract task.
type ExtractPayload struct {
	JobID    string        `json:"job_id"`
	Path     string        `json:"path"`
	MimeHint string        `json:"mime_hint,omitempty"`
	Config   extract.Config `json:"config"`
}

// NewExtractPayload builds a payload with a freshly generated job ID.
func NewExtractPayload(path, mimeHint string, cfg extract.Config) ExtractPayload {
	return ExtractPayload{JobID: uuid.NewString(), Path: path, MimeHint: mimeHint, Config: cfg}
}

// Marshal renders the payload as the asynq task body.
func (p ExtractPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalExtractPayload parses an asynq task body back into an
// ExtractPayload.
func UnmarshalExtractPayload(data []byte) (ExtractPayload, error) {
	var p ExtractPayload
	err := json.Unmarshal(data, &p)
	return p, err
}
