package config

import (
	"fmt"

	"github.com/blang/semver"
)

// VersionChange describes the comparison between a previously cached spec's
// version and a freshly re-added one (`config add --force` / `reinit`).
type VersionChange struct {
	Previous string
	Current  string
	Kind     string // "upgrade", "downgrade", "unchanged", "unknown"
}

// CompareVersions reports how current relates to previous. When either
// string isn't valid semver, the comparison falls back to a raw
// string-equality note rather than failing the command.
func CompareVersions(previous, current string) VersionChange {
	vc := VersionChange{Previous: previous, Current: current}

	prevSV, prevErr := semver.ParseTolerant(previous)
	curSV, curErr := semver.ParseTolerant(current)
	if prevErr != nil || curErr != nil {
		if previous == current {
			vc.Kind = "unchanged"
		} else {
			vc.Kind = "unknown"
		}
		return vc
	}

	switch curSV.Compare(prevSV) {
	case 1:
		vc.Kind = "upgrade"
	case -1:
		vc.Kind = "downgrade"
	default:
		vc.Kind = "unchanged"
	}
	return vc
}

// Describe renders a one-line human-readable summary of the change.
func (vc VersionChange) Describe(apiName string) string {
	switch vc.Kind {
	case "upgrade":
		return fmt.Sprintf("%s: version %s -> %s (upgrade)", apiName, vc.Previous, vc.Current)
	case "downgrade":
		return fmt.Sprintf("%s: version %s -> %s (downgrade)", apiName, vc.Previous, vc.Current)
	case "unchanged":
		return fmt.Sprintf("%s: version unchanged (%s)", apiName, vc.Current)
	default:
		return fmt.Sprintf("%s: version %s -> %s", apiName, vc.Previous, vc.Current)
	}
}
