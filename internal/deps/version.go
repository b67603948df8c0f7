package deps

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionProbeTimeout = 10 * time.Second

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// Version is a parsed major.minor[.patch] tuple.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v >= other, comparing major then minor then patch.
func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Patch >= other.Patch
}

// SameMinor reports whether v and other share the major.minor line.
func (v Version) SameMinor(other Version) bool {
	return v.Major == other.Major && v.Minor == other.Minor
}

// ParseVersion extracts the first version tuple from command output such as
// "v22.14.0" or "Python 3.12.4".
func ParseVersion(output string) (Version, error) {
	match := versionPattern.FindStringSubmatch(output)
	if match == nil {
		return Version{}, fmt.Errorf("no version found in %q", strings.TrimSpace(output))
	}
	major, _ := strconv.Atoi(match[1])
	minor, _ := strconv.Atoi(match[2])
	patch := 0
	if match[3] != "" {
		patch, _ = strconv.Atoi(match[3])
	}
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// ProbeVersion runs `command <arg>` and parses the reported version.
// arg defaults to --version.
func ProbeVersion(ctx context.Context, command string, arg string) (Version, error) {
	if strings.TrimSpace(command) == "" {
		return Version{}, fmt.Errorf("version probe: command required")
	}
	if arg == "" {
		arg = "--version"
	}

	probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	output, err := exec.CommandContext(probeCtx, command, arg).CombinedOutput()
	if err != nil {
		return Version{}, fmt.Errorf("%s %s: %w", command, arg, err)
	}
	return ParseVersion(string(output))
}
