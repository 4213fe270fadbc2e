package aggregate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionPolicy decides whether a publisher counts as "v2.02 or later"
type VersionPolicy string

const (
	// PolicyExact matches the literal versions "2.02" and "2.03" only.
	// A later version such as "2.04" does not match.
	PolicyExact VersionPolicy = "exact"
	// PolicyMinimum matches any version >= 2.02
	PolicyMinimum VersionPolicy = "minimum"
)

var exactVersions = map[string]bool{"2.02": true, "2.03": true}

var minimumConstraint = mustConstraint(">= 2.2.0")

func mustConstraint(c string) *semver.Constraints {
	cons, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cons
}

// ParseVersionPolicy validates a configured policy name
func ParseVersionPolicy(s string) (VersionPolicy, error) {
	switch VersionPolicy(s) {
	case "", PolicyExact:
		return PolicyExact, nil
	case PolicyMinimum:
		return PolicyMinimum, nil
	default:
		return "", fmt.Errorf("알 수 없는 version policy '%s' (exact|minimum)", s)
	}
}

// Satisfied reports whether version meets the policy. A nil version never does.
func (p VersionPolicy) Satisfied(version *string) bool {
	if version == nil {
		return false
	}
	if p == PolicyMinimum {
		v, ok := iatiSemver(*version)
		return ok && minimumConstraint.Check(v)
	}
	return exactVersions[*version]
}

// iatiSemver maps an IATI "M.mm" version to semver M.m.0
func iatiSemver(s string) (*semver.Version, bool) {
	major, minor, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return nil, false
	}
	ma, err := strconv.ParseUint(major, 10, 64)
	if err != nil {
		return nil, false
	}
	mi, err := strconv.ParseUint(minor, 10, 64)
	if err != nil {
		return nil, false
	}
	return semver.New(ma, mi, 0, "", ""), true
}
