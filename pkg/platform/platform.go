package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	v1 "github.com/LeeJB-48/embreex4/pkg/api/v1"
)

// ErrUnsupportedPlatform is returned when the running OS
// is not one of the darwin, windows or linux families.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Info describes the platform we're installing for.
type Info struct {
	OS   string
	Arch string
}

// Current returns the platform of the running process.
func Current() Info {
	return Info{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

func (i Info) String() string {
	return i.OS + "/" + i.Arch
}

type family int

const (
	familyDarwin family = iota
	familyWindows
	familyLinux
)

func osFamily(goos string) (family, error) {
	current := normalize(goos)
	switch {
	case strings.HasPrefix(current, "dar"):
		return familyDarwin, nil
	case strings.HasPrefix(current, "win"):
		return familyWindows, nil
	case strings.HasPrefix(current, "lin"):
		return familyLinux, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, goos)
	}
}

// Validate checks that the OS belongs to a family
// that catalog entries can target.
func Validate(i Info) error {
	_, err := osFamily(i.OS)
	return err
}

// Matches reports whether the package targets the
// given platform. Operating systems are compared by
// prefix so that "macos", "darwin" and "mac-arm" all
// select darwin.
func Matches(pkg v1.PackageSpec, current Info) (bool, error) {
	fam, err := osFamily(current.OS)
	if err != nil {
		return false, err
	}
	want := normalize(pkg.Platform)

	var ok bool
	switch fam {
	case familyDarwin:
		ok = strings.HasPrefix(want, "dar") || strings.HasPrefix(want, "mac")
	case familyWindows:
		ok = strings.HasPrefix(want, "win")
	case familyLinux:
		ok = strings.HasPrefix(want, "lin")
	}
	if !ok {
		return false, nil
	}

	if strings.TrimSpace(pkg.Arch) == "" {
		return true, nil
	}
	return NormalizeArch(current.Arch) == NormalizeArch(pkg.Arch), nil
}

// NormalizeArch maps the various spellings of an
// architecture onto a single name.
func NormalizeArch(s string) string {
	s = normalize(s)
	switch s {
	case "amd64", "x86_64", "x64":
		return "x86_64"
	case "arm64", "aarch64":
		return "arm64"
	default:
		return s
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
