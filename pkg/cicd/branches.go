// Package cicd maps source-control branches to Fabric environments and
// drives the git-based deployment flow.
package cicd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// BranchMap maps branch names to workspace-name suffixes, loaded from
// branches.json. A typical file:
//
//	{"main": "-PRD", "staging": "-STG", "dev": "-DEV"}
type BranchMap map[string]string

// DefaultBranchMap is used when no branches.json exists.
var DefaultBranchMap = BranchMap{
	"main":    "-PRD",
	"master":  "-PRD",
	"staging": "-STG",
	"dev":     "-DEV",
}

// LoadBranchMap reads a branch mapping from a JSON file. A missing file
// yields the default mapping; a malformed file is an error.
func LoadBranchMap(path string) (BranchMap, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultBranchMap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading branch map: %w", err)
	}

	var bm BranchMap
	if err := json.Unmarshal(data, &bm); err != nil {
		return nil, fmt.Errorf("parsing branch map %s: %w", path, err)
	}
	return bm, nil
}

// Save writes the mapping back to a JSON file.
func (bm BranchMap) Save(path string) error {
	data, err := json.MarshalIndent(bm, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SuffixFor returns the workspace-name suffix for a branch. Unknown branches
// get a suffix derived from the branch name itself, so feature branches map
// to their own workspaces without editing branches.json.
func (bm BranchMap) SuffixFor(branch string) string {
	if suffix, ok := bm[branch]; ok {
		return suffix
	}
	sanitized := strings.NewReplacer("/", "-", " ", "-").Replace(branch)
	return "-" + strings.ToUpper(sanitized)
}

// WorkspaceNameFor combines a project base name with the branch suffix.
func (bm BranchMap) WorkspaceNameFor(baseName, branch string) string {
	return baseName + bm.SuffixFor(branch)
}

// BaseName strips a known suffix from a workspace name. If no configured
// suffix matches, the name is returned unchanged.
func (bm BranchMap) BaseName(workspaceName string) string {
	for _, suffix := range bm {
		if suffix != "" && strings.HasSuffix(workspaceName, suffix) {
			return strings.TrimSuffix(workspaceName, suffix)
		}
	}
	return workspaceName
}

// CurrentBranch returns the branch the CI run is building: the explicit
// value when given, otherwise the conventional CI environment variables.
func CurrentBranch(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, key := range []string{"GIT_BRANCH", "BRANCH_NAME", "GITHUB_REF_NAME", "BUILD_SOURCEBRANCHNAME"} {
		if v := os.Getenv(key); v != "" {
			return strings.TrimPrefix(v, "refs/heads/")
		}
	}
	return "main"
}
