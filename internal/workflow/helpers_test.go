package workflow

import (
	"errors"

	"github.com/yourorg/blobtour/internal/walkthrough"
)

func walkthroughFailure() walkthrough.StepResult {
	return walkthrough.StepResult{Step: walkthrough.StepDownload, Err: errors.New("boom"), Kind: walkthrough.KindGeneric}
}
