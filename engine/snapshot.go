package engine

import (
	"encoding/json"
	"fmt"
	"os"

	campaigner "github.com/spetersoncode/campaigner"
)

// SnapshotVersion is the wire version of saved runs. Load rejects snapshots
// written by an incompatible version.
const SnapshotVersion = 1

type snapshot struct {
	Version int          `json:"version"`
	Run     *WorkflowRun `json:"run"`
}

// Save serializes a run to a versioned JSON snapshot.
func Save(run *WorkflowRun) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot{Version: SnapshotVersion, Run: run}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Load restores a run from a snapshot produced by Save. Malformed data, a
// version mismatch, or an inconsistent run all yield ErrCorruptState.
func Load(data []byte) (*WorkflowRun, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", campaigner.ErrCorruptState, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d, want %d",
			campaigner.ErrCorruptState, snap.Version, SnapshotVersion)
	}

	run := snap.Run
	if run == nil || run.ID == "" || run.State == nil {
		return nil, fmt.Errorf("%w: snapshot missing run identity or state", campaigner.ErrCorruptState)
	}
	if campaigner.StageIndex(run.Current) < 0 {
		return nil, fmt.Errorf("%w: unknown stage %q", campaigner.ErrCorruptState, run.Current)
	}
	switch run.Status {
	case StatusRunning, StatusAwaitingReview, StatusCompleted, StatusFailed, StatusAborted:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", campaigner.ErrCorruptState, run.Status)
	}

	if run.StageRetries == nil {
		run.StageRetries = make(map[campaigner.StageName]int)
	}
	return run, nil
}

// SaveFile writes a snapshot to path.
func SaveFile(path string, run *WorkflowRun) error {
	data, err := Save(run)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile restores a run from a snapshot file.
func LoadFile(path string) (*WorkflowRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Load(data)
}
