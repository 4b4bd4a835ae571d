package corpus

import (
	"fmt"

	"github.com/shaynamir/archbench/archbench"
)

// Profile names a corpus subset size.
type Profile string

const (
	// ProfileShort is the curated small set: 8 actions, 8 status queries
	// and 4 error utterances.
	ProfileShort Profile = "short"
	// ProfileMicro selects 3 actions and 2 status queries per domain.
	ProfileMicro Profile = "micro"
	// ProfileLite selects 5 actions and 4 status queries per domain.
	ProfileLite Profile = "lite"
	// ProfileCore selects 8 actions and 7 status queries per domain.
	ProfileCore Profile = "core"
	// ProfileLong is the full catalog.
	ProfileLong Profile = "long"
)

// Profiles lists every profile in canonical order.
func Profiles() []Profile {
	return []Profile{ProfileShort, ProfileMicro, ProfileLite, ProfileCore, ProfileLong}
}

// ParseProfile resolves a user-supplied profile name; empty means core.
func ParseProfile(s string) (Profile, error) {
	if s == "" {
		return ProfileCore, nil
	}
	for _, p := range Profiles() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown corpus profile %q", s)
}

// profileDomains are the domains covered by the per-domain quota profiles.
var profileDomains = []string{"light", "switch", "fan", "lock"}

// Select returns the commands of one profile. Error-handling commands are
// included only when includeErrors is set; the quota profiles never carry
// them regardless.
func Select(profile Profile, includeErrors bool) ([]archbench.Command, error) {
	all := All()
	switch profile {
	case ProfileLong:
		if includeErrors {
			return all, nil
		}
		return filter(all, func(c archbench.Command) bool {
			return c.Category != archbench.CategoryError
		}), nil

	case ProfileShort:
		out := firstN(all, archbench.CategoryAction, "", 8)
		out = append(out, firstN(all, archbench.CategoryStatus, "", 8)...)
		if includeErrors {
			out = append(out, firstN(all, archbench.CategoryError, "", 4)...)
		}
		return out, nil

	case ProfileMicro, ProfileLite, ProfileCore:
		quotas := map[Profile][2]int{
			ProfileMicro: {3, 2},
			ProfileLite:  {5, 4},
			ProfileCore:  {8, 7},
		}[profile]
		var out []archbench.Command
		for _, dom := range profileDomains {
			out = append(out, firstN(all, archbench.CategoryAction, dom, quotas[0])...)
			out = append(out, firstN(all, archbench.CategoryStatus, dom, quotas[1])...)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown corpus profile %q", profile)
	}
}

func filter(cmds []archbench.Command, keep func(archbench.Command) bool) []archbench.Command {
	var out []archbench.Command
	for _, c := range cmds {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// firstN picks the first n commands of a category (and domain, when set) in
// catalog order, skipping duplicate texts.
func firstN(cmds []archbench.Command, cat archbench.Category, domain string, n int) []archbench.Command {
	seen := make(map[string]bool)
	var out []archbench.Command
	for _, c := range cmds {
		if c.Category != cat {
			continue
		}
		if domain != "" && c.Domain != domain {
			continue
		}
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}
