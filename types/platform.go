package types

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Platform identifies a host operating system family a test or step may be
// restricted to (spec.md 3, 6).
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMac     Platform = "mac"
	PlatformLinux   Platform = "linux"
)

// HostPlatform maps runtime.GOOS to the spec's Platform vocabulary.
func HostPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMac
	default:
		return PlatformLinux
	}
}

// PlatformSet is the set of platforms a test/step declares itself runnable
// on. A nil/empty set means "all platforms".
type PlatformSet map[Platform]struct{}

func NewPlatformSet(platforms ...Platform) PlatformSet {
	if len(platforms) == 0 {
		return nil
	}
	s := make(PlatformSet, len(platforms))
	for _, p := range platforms {
		s[p] = struct{}{}
	}
	return s
}

// Allows reports whether host may run a step/test declaring this set.
func (s PlatformSet) Allows(host Platform) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[host]
	return ok
}

// Intersect combines a reference's platform filter with an included step's
// own filter (spec.md 4.3): the step runs only where both would have run.
func (s PlatformSet) Intersect(other PlatformSet) PlatformSet {
	if len(s) == 0 {
		return other
	}
	if len(other) == 0 {
		return s
	}
	out := make(PlatformSet)
	for p := range s {
		if _, ok := other[p]; ok {
			out[p] = struct{}{}
		}
	}
	return out
}

// Version is a minimal semver triple used for the supported_versions gate
// (spec.md 3, RunSettings.supported_versions).
type Version struct {
	Major, Minor, Patch int
}

func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(s, "v")
	parts := strings.SplitN(s, ".", 3)
	var v Version
	var err error
	if len(parts) > 0 {
		if v.Major, err = strconv.Atoi(parts[0]); err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
	}
	if len(parts) > 1 {
		if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
	}
	if len(parts) > 2 {
		if v.Patch, err = strconv.Atoi(parts[2]); err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
	}
	return v, nil
}

func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return v.Major - other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor - other.Minor
	}
	return v.Patch - other.Patch
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// VersionRange is a [Min, Max] inclusive range, either bound optional.
type VersionRange struct {
	Min, Max *Version
}

// Contains reports whether version falls within the range.
func (r VersionRange) Contains(version Version) bool {
	if r.Min != nil && version.Compare(*r.Min) < 0 {
		return false
	}
	if r.Max != nil && version.Compare(*r.Max) > 0 {
		return false
	}
	return true
}

// ParseVersionRange parses a range expression of the form "1.2.0-2.0.0",
// ">=1.2.0", or a bare "1.2.0" (exact match via Min==Max).
func ParseVersionRange(expr string) (VersionRange, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return VersionRange{}, nil
	}
	if strings.HasPrefix(expr, ">=") {
		v, err := ParseVersion(strings.TrimSpace(expr[2:]))
		if err != nil {
			return VersionRange{}, err
		}
		return VersionRange{Min: &v}, nil
	}
	if idx := strings.Index(expr, "-"); idx != -1 {
		lo, err := ParseVersion(strings.TrimSpace(expr[:idx]))
		if err != nil {
			return VersionRange{}, err
		}
		hi, err := ParseVersion(strings.TrimSpace(expr[idx+1:]))
		if err != nil {
			return VersionRange{}, err
		}
		return VersionRange{Min: &lo, Max: &hi}, nil
	}
	v, err := ParseVersion(expr)
	if err != nil {
		return VersionRange{}, err
	}
	return VersionRange{Min: &v, Max: &v}, nil
}
