package types

// WalkthroughParams configures one workflow-driven walkthrough run.
type WalkthroughParams struct {
	ContainerPrefix string            `json:"container_prefix"`
	FilePrefix      string            `json:"file_prefix"`
	Content         string            `json:"content"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	// WorkDir is a directory on the worker host; empty uses the worker's default.
	WorkDir string `json:"work_dir,omitempty"`
	// If true, the workflow deletes the container once all steps have run.
	DeleteContainer bool `json:"delete_container"`
}

type ProvisionResult struct {
	Container string `json:"container"`
}

// StepParams is the input of every step after provisioning.
type StepParams struct {
	Params    WalkthroughParams `json:"params"`
	Container string            `json:"container"`
}

// StepOutcome is the serializable form of a step result. Error is empty on success.
type StepOutcome struct {
	Step     string            `json:"step"`
	Error    string            `json:"error,omitempty"`
	Kind     string            `json:"kind,omitempty"`
	Blobs    []string          `json:"blobs,omitempty"`
	Files    []string          `json:"files,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type WalkthroughResult struct {
	Container string        `json:"container"`
	Steps     []StepOutcome `json:"steps"`
	// CleanupError is set when DeleteContainer was requested and failed.
	CleanupError string `json:"cleanup_error,omitempty"`
}

// CleanupParams instructs the cleanup activity which container to remove.
type CleanupParams struct {
	Container string `json:"container"`
}
