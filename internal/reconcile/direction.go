package reconcile

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Change describes how a new version orders against an old one.
type Change int

const (
	Incomparable Change = iota
	Same
	Upgrade
	Downgrade
)

func (c Change) String() string {
	switch c {
	case Same:
		return "same"
	case Upgrade:
		return "upgrade"
	case Downgrade:
		return "downgrade"
	default:
		return "incomparable"
	}
}

// Direction compares old and new as semantic versions. Either side failing
// to parse yields Incomparable.
func Direction(oldVersion, newVersion string) Change {
	ov, err := parseSemver(oldVersion)
	if err != nil {
		return Incomparable
	}
	nv, err := parseSemver(newVersion)
	if err != nil {
		return Incomparable
	}
	switch ov.Compare(nv) {
	case -1:
		return Upgrade
	case 1:
		return Downgrade
	default:
		return Same
	}
}

// Direction annotates r with its semver ordering.
func (r Result) Direction() Change {
	return Direction(r.OldVersion, r.NewVersion)
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
