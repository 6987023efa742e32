package types

// DeleteManifest reports what a structural delete removed and which object
// store keys are left for best-effort cleanup after the transaction commits.
type DeleteManifest struct {
	DeletedCounts map[string]int `json:"deleted_counts"`
	BlobKeys      []string       `json:"blob_keys"`
}

func NewDeleteManifest() *DeleteManifest {
	return &DeleteManifest{DeletedCounts: map[string]int{}}
}

func (m *DeleteManifest) Count(entity string, n int) {
	if n == 0 {
		return
	}
	m.DeletedCounts[entity] += n
}

func (m *DeleteManifest) AddKeys(keys ...string) {
	for _, k := range keys {
		if k != "" {
			m.BlobKeys = append(m.BlobKeys, k)
		}
	}
}

func (m *DeleteManifest) Merge(other *DeleteManifest) {
	if other == nil {
		return
	}
	for entity, n := range other.DeletedCounts {
		m.DeletedCounts[entity] += n
	}
	m.BlobKeys = append(m.BlobKeys, other.BlobKeys...)
}
