// Package semver renders structured semantic version fingerprints for the
// linechat binaries.
package semver

import (
	"fmt"
	"strings"
)

// V - structured semantic version.
type V struct {
	Major, Minor, Patch uint
	PreRelease          string
	BuildMetadata       []string
}

func (v V) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.PreRelease != "" {
		s += "-" + v.PreRelease
	}
	if len(v.BuildMetadata) > 0 {
		s += "+" + strings.Join(v.BuildMetadata, ".")
	}
	return s
}
