package reconciler

import "time"

// Result summarizes one reconciliation pass.
type Result struct {
	// Processed counts devices the pass looked at, including skips.
	Processed int

	// Created counts newly created assets.
	Created int

	// Updated counts assets that received at least one field sync.
	Updated int

	// TagWritebacks counts asset tags pushed back into the MDM.
	TagWritebacks int

	// Skipped counts devices deferred to a future pass: missing detail,
	// unavailable serials, or a model that could not be created.
	Skipped int

	// Conflicts counts duplicate-serial lookups needing manual resolution.
	Conflicts int

	// Errors counts per-device failures that were logged and stepped over.
	Errors int

	// Metadata describes the pass itself.
	Metadata Metadata
}

// Metadata describes when and how a pass ran.
type Metadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	DryRun    bool

	// Devices is the size of the MDM enumeration.
	Devices int
}

// finish stamps the end time and duration.
func (r *Result) finish() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}
