package tools

import (
	"os"
	"regexp"
	"runtime/debug"

	"github.com/aquilax/truncate"
	"github.com/distribution/distribution/reference"
)

const containerNamePrefix = "funcrunner-"

func PackageVersion(name string) string {
	bi, ok := debug.ReadBuildInfo()
	if ok {
		for _, dep := range bi.Deps {
			if dep.Path == name {
				return dep.Version
			}
		}
	}
	return "unknown"
}

var offendingChars = regexp.MustCompile("[^a-zA-Z0-9_.-]")

func sanitize(s string) string {
	s2 := truncate.Truncate(offendingChars.ReplaceAllString(s, "-"), 63, "", truncate.PositionEnd)
	// remove trailing dash
	if len(s2) > 0 && s2[len(s2)-1] == '-' {
		return s2[:len(s2)-1]
	}
	return s2
}

// ContainerName returns a valid engine container name for one invocation of function
func ContainerName(function, invocationID string) string {
	return sanitize(containerNamePrefix+function) + "-" + invocationID
}

// FileContent returns the content of path, nil when it cannot be read
func FileContent(path string) []byte {
	b, _ := os.ReadFile(path)
	return b
}

// FamiliarReference returns the short form users type for ref (docker.io/library/ removed),
// or ref itself when it cannot be parsed
func FamiliarReference(ref string) string {
	n, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return ref
	}
	return reference.FamiliarString(n)
}
