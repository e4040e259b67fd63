package engine

import (
	"fmt"
	"reflect"

	campaigner "github.com/spetersoncode/campaigner"
)

// validateEdit checks an operator-edited aggregate submitted at a
// checkpoint. Edits may rework anything the pipeline has already produced,
// but must not touch the immutable inputs or pre-fill sections owned by
// stages that have not run yet.
func validateEdit(checkpoint campaigner.StageName, current, edited *campaigner.CampaignState) error {
	if edited == nil {
		return nil
	}

	if !reflect.DeepEqual(current.Inputs, edited.Inputs) {
		return fmt.Errorf("%w: inputs are immutable after ingestion", campaigner.ErrInvalidEdit)
	}

	idx := campaigner.StageIndex(checkpoint)
	if idx < 0 {
		return fmt.Errorf("%w: unknown checkpoint stage %q", campaigner.ErrCorruptState, checkpoint)
	}
	for _, future := range campaigner.StageOrder[idx+1:] {
		if edited.Produced(future) {
			return fmt.Errorf("%w: section owned by later stage %q must be empty",
				campaigner.ErrInvalidEdit, future)
		}
	}

	// Asset identity is fixed once the manifest exists; edits may only
	// change status and ordering-neutral fields through the normal flow.
	if len(current.Manifest) > 0 {
		if len(edited.Manifest) != len(current.Manifest) {
			return fmt.Errorf("%w: manifest entries cannot be added or removed", campaigner.ErrInvalidEdit)
		}
		for i := range current.Manifest {
			if edited.Manifest[i].ID != current.Manifest[i].ID {
				return fmt.Errorf("%w: manifest entry %d changed identity", campaigner.ErrInvalidEdit, i)
			}
		}
	}

	return nil
}
