package export

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// DetectRevision returns the short commit hash of the repository containing
// dir, or UnknownVersion when git is unavailable or dir is not a repository
func DetectRevision(ctx context.Context, dir string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return UnknownVersion
	}
	rev := strings.TrimSpace(string(output))
	if rev == "" {
		return UnknownVersion
	}
	return rev
}
