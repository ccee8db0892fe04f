package profile

import "time"

// Defaults holds previously entered company details used to prefill the form.
// At most one row exists per (email, product); reads and writes are
// best-effort and never block a submission.
type Defaults struct {
	Email     string
	Product   string
	Values    map[string]any
	UpdatedAt time.Time
}
