package cicd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amaliebjorgen/fabricops/pkg/fabric"
)

// WorkspaceConfig is the exported snapshot of one workspace.
type WorkspaceConfig struct {
	WorkspaceId    string                  `json:"workspace_id"`
	WorkspaceName  string                  `json:"workspace_name"`
	Description    string                  `json:"workspace_description,omitempty"`
	CapacityId     string                  `json:"capacity_id,omitempty"`
	CapacityRegion string                  `json:"capacity_region,omitempty"`
	Roles          []fabric.RoleAssignment `json:"workspace_roles,omitempty"`
}

// ProjectConfig is the on-disk config file: branch -> base workspace name ->
// workspace snapshot.
type ProjectConfig map[string]map[string]WorkspaceConfig

// MergeMode controls how ExportConfig combines a new snapshot with an
// existing config file.
type MergeMode string

const (
	// MergeUpdate overwrites the entry for this branch and workspace,
	// keeping everything else.
	MergeUpdate MergeMode = "update"
	// MergeReplace discards the existing file.
	MergeReplace MergeMode = "replace"
	// MergePreserve keeps an existing entry and only adds missing ones.
	MergePreserve MergeMode = "preserve"
)

// Exporter snapshots live workspace state into project config files.
type Exporter struct {
	fabric   *fabric.Client
	branches BranchMap
}

// NewExporter creates an Exporter using the given branch mapping.
func NewExporter(fabricClient *fabric.Client, branches BranchMap) *Exporter {
	if branches == nil {
		branches = DefaultBranchMap
	}
	return &Exporter{fabric: fabricClient, branches: branches}
}

// Snapshot reads a workspace and its role assignments into a config entry.
func (e *Exporter) Snapshot(ctx context.Context, workspace string) (*WorkspaceConfig, error) {
	id, err := e.fabric.ResolveWorkspace(ctx, workspace)
	if err != nil {
		return nil, err
	}
	ws, err := e.fabric.GetWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, err := e.fabric.ListRoleAssignments(ctx, ws.Id)
	if err != nil {
		return nil, fmt.Errorf("listing role assignments of %s: %w", ws.DisplayName, err)
	}

	return &WorkspaceConfig{
		WorkspaceId:    ws.Id,
		WorkspaceName:  ws.DisplayName,
		Description:    ws.Description,
		CapacityId:     ws.CapacityId,
		CapacityRegion: ws.CapacityRegion,
		Roles:          roles,
	}, nil
}

// ExportConfig snapshots a workspace and merges it into the config file at
// path under the given branch, keyed by the workspace base name (display
// name with the branch suffix stripped).
func (e *Exporter) ExportConfig(ctx context.Context, workspace, branch, path string, mode MergeMode) error {
	snapshot, err := e.Snapshot(ctx, workspace)
	if err != nil {
		return err
	}

	branch = CurrentBranch(branch)
	baseName := e.branches.BaseName(snapshot.WorkspaceName)

	existing := ProjectConfig{}
	if mode != MergeReplace {
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("parsing existing config %s: %w", path, err)
			}
		}
	}

	if existing[branch] == nil {
		existing[branch] = make(map[string]WorkspaceConfig)
	}
	if _, present := existing[branch][baseName]; present && mode == MergePreserve {
		return nil
	}
	existing[branch][baseName] = *snapshot

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
