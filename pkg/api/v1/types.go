package v1

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Catalog is the ordered list of installable packages.
type Catalog []PackageSpec

type PackageSpec struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Arch     string `json:"arch,omitempty"`
	URL      string `json:"url"`
	SHA256   string `json:"sha256"`
	Target   string `json:"target"`

	Chmod           *FileMode `json:"chmod,omitempty"`
	ExtractSkip     []string  `json:"extract_skip,omitempty"`
	ExtractOnly     string    `json:"extract_only,omitempty"`
	StripComponents int       `json:"strip_components,omitempty"`
}

// FileMode is a permission value written the way a shell
// user would write it for chmod (e.g. 755), so the decimal
// digits are read as octal. YAML catalogs must quote the
// value since YAML converts a leading-zero number to
// decimal before it reaches us.
type FileMode os.FileMode

// ParseFileMode reads s as an octal permission string.
func ParseFileMode(s string) (FileMode, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %w", s, err)
	}
	if v > 0o7777 {
		return 0, fmt.Errorf("invalid file mode %q: out of range", s)
	}
	return FileMode(v), nil
}

func (m FileMode) Perm() os.FileMode {
	return os.FileMode(m)
}

func (m FileMode) String() string {
	return fmt.Sprintf("%o", uint32(m))
}

func (m *FileMode) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		s = n.String()
	}
	v, err := ParseFileMode(s)
	if err != nil {
		if data[0] != '"' {
			// YAML reads a leading zero as octal and hands us
			// the decimal value (0755 -> 493)
			return fmt.Errorf("%w (quote chmod values in YAML catalogs, e.g. \"0755\")", err)
		}
		return err
	}
	*m = v
	return nil
}

func (m FileMode) MarshalJSON() ([]byte, error) {
	// keep the catalog's numeric form so a round trip
	// through the lock command doesn't change its shape
	return []byte(m.String()), nil
}

// Lookup returns the named entries in catalog order.
func (c Catalog) Lookup(name string) []PackageSpec {
	var out []PackageSpec
	for _, p := range c {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}
