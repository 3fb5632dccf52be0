package domain

// ItemStatus is the outcome of one item's trip through the download pipeline.
type ItemStatus int

const (
	// ItemUpdated means the file was fetched, written, and its cache row upserted.
	ItemUpdated ItemStatus = iota
	// ItemDryRun means the download was only logged, nothing was touched.
	ItemDryRun
	// ItemFailed means the item was abandoned; Err carries the failure.
	ItemFailed
)

// ItemResult is the per-item outcome returned by the download pipeline.
// Failures are carried as values so one item's error never propagates
// beyond its worker.
type ItemResult struct {
	Key      FileKey
	Product  string
	Filename string
	Status   ItemStatus
	Err      error
}

// Failed reports whether the item was abandoned.
func (r *ItemResult) Failed() bool {
	return r.Status == ItemFailed
}

// FailureKind returns the kind of the carried failure, FailureNone on success.
func (r *ItemResult) FailureKind() FailureKind {
	if r.Err == nil {
		return FailureNone
	}
	return KindOf(r.Err)
}
