package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// validateSchemaDocument compiles schema as a JSON Schema document,
// rejecting registry entries whose inputSchema/outputSchema is not
// itself well-formed (malformed "type", unresolvable internal $refs,
// etc.) before it's ever advertised to a caller.
func validateSchemaDocument(schema map[string]any) error {
	if schema == nil {
		return nil
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
		return fmt.Errorf("not a valid JSON Schema: %w", err)
	}
	return nil
}
