package storage

// Category names double as directory names under the data root and as the
// top-level directories of the thumbnail cache. Identifiers are only
// unique within one category.
const (
	CategoryTrajectories = "trajectories"
	CategoryModels       = "models"
)

// TrajectoryInfo summarizes one stored trajectory file.
type TrajectoryInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Category  string `json:"category,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
}

// ModelInfo summarizes one stored model entry document.
type ModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}
