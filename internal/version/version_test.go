package version_test

import (
	"regexp"
	"testing"

	"github.com/shpitdev/profile-finder/internal/version"
)

var semver = regexp.MustCompile(`^(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)$`)

func TestCurrent(t *testing.T) {
	if !semver.MatchString(version.Current) {
		t.Fatalf("Current=%q must be <major>.<minor>.<patch> without a v prefix", version.Current)
	}
}
