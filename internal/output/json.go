package output

import (
	"encoding/json"
	"io"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// RenderJSON writes report to w as indented JSON followed by a newline.
func RenderJSON(w io.Writer, report *models.ScanReport) error {
	return WriteJSON(w, report)
}

// WriteJSON writes v to w as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
