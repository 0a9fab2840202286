package cicd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBranchMapMissingFileUsesDefaults(t *testing.T) {
	bm, err := LoadBranchMap(filepath.Join(t.TempDir(), "branches.json"))
	require.NoError(t, err)
	assert.Equal(t, "-PRD", bm.SuffixFor("main"))
}

func TestLoadBranchMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "branches.json")
	bm := BranchMap{"main": "-PROD", "qa": "-QA"}
	require.NoError(t, bm.Save(path))

	loaded, err := LoadBranchMap(path)
	require.NoError(t, err)
	assert.Equal(t, bm, loaded)
}

func TestLoadBranchMapMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "branches.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadBranchMap(path)
	require.Error(t, err)
}

func TestSuffixForUnknownBranchDerivesSuffix(t *testing.T) {
	bm := DefaultBranchMap
	assert.Equal(t, "-FEATURE-NEW-REPORT", bm.SuffixFor("feature/new-report"))
	assert.Equal(t, "-QA", bm.SuffixFor("qa"))
}

func TestWorkspaceNameFor(t *testing.T) {
	bm := BranchMap{"main": "-PRD", "dev": "-DEV"}
	assert.Equal(t, "Sales-PRD", bm.WorkspaceNameFor("Sales", "main"))
	assert.Equal(t, "Sales-DEV", bm.WorkspaceNameFor("Sales", "dev"))
}

func TestBaseNameStripsKnownSuffix(t *testing.T) {
	bm := BranchMap{"main": "-PRD", "dev": "-DEV"}
	assert.Equal(t, "Sales", bm.BaseName("Sales-PRD"))
	assert.Equal(t, "Sales", bm.BaseName("Sales-DEV"))
	assert.Equal(t, "Sandbox", bm.BaseName("Sandbox"))
}

func TestCurrentBranch(t *testing.T) {
	assert.Equal(t, "feature/x", CurrentBranch("feature/x"))

	t.Setenv("GIT_BRANCH", "refs/heads/dev")
	assert.Equal(t, "dev", CurrentBranch(""))
}
