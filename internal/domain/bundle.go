package domain

// BundleAccepted carries the slot a bundle landed in.
type BundleAccepted struct {
	Slot uint64
}

// BundleRejected carries the relay's rejection reason.
type BundleRejected struct {
	Reason string
}

// BundleResult is one relay bundle-result event. Exactly one of Accepted or
// Rejected is set.
type BundleResult struct {
	BundleID string
	Accepted *BundleAccepted
	Rejected *BundleRejected
}
