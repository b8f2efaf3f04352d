// internal/library/schema.go
// Sidecar shape validation. A sidecar that parses as JSON but carries the
// wrong shape (a string timestamp, an overlay missing its glyph) is as
// unusable as one that does not parse; both degrade to "absent".
package library

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// sidecarSchema describes the on-disk sidecar document. Placement fractions
// are bounded to [0,1] and the overlay scale must be positive, matching what
// the editor is allowed to produce.
const sidecarSchema = `{
  "type": "object",
  "required": ["uri", "filename", "timestamp", "mediaKind"],
  "properties": {
    "uri": {"type": "string"},
    "filename": {"type": "string"},
    "timestamp": {"type": "integer"},
    "mediaKind": {"type": "string", "enum": ["photo", "video"]},
    "caption": {"type": "string", "maxLength": 2200},
    "emojis": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "glyph", "xFraction", "yFraction", "scale"],
        "properties": {
          "id": {"type": "string"},
          "glyph": {"type": "string"},
          "xFraction": {"type": "number", "minimum": 0, "maximum": 1},
          "yFraction": {"type": "number", "minimum": 0, "maximum": 1},
          "scale": {"type": "number", "exclusiveMinimum": 0}
        }
      }
    },
    "published": {"type": "boolean"},
    "backendId": {"type": "integer"},
    "segments": {"type": "array", "items": {"type": "string"}},
    "originalUri": {"type": "string"}
  }
}`

var (
	compiledSidecarSchema *gojsonschema.Schema
	compileSchemaOnce     sync.Once
	compileSchemaErr      error
)

// validateSidecar checks raw sidecar bytes against the sidecar schema.
// Returns a descriptive error when the document is malformed or invalid.
func validateSidecar(raw []byte) error {
	compileSchemaOnce.Do(func() {
		compiledSidecarSchema, compileSchemaErr = gojsonschema.NewSchema(
			gojsonschema.NewStringLoader(sidecarSchema))
	})
	if compileSchemaErr != nil {
		return fmt.Errorf("sidecar schema failed to compile: %w", compileSchemaErr)
	}

	result, err := compiledSidecarSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("sidecar is not valid JSON: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("sidecar failed validation: %s", result.Errors()[0])
	}
	return nil
}
