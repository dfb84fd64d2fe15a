package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	v1 "github.com/LeeJB-48/embreex4/pkg/api/v1"
)

// Encode writes c to w as indented JSON.
func Encode(w io.Writer, c v1.Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return nil
}
