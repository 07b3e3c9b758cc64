package gcsfusemount

// CheckConflicts compares the accumulator before this addition (current)
// against a newly resolved list (candidate). For every pair where both
// share a mount_point but disagree on bucket, it returns a *ConflictError
// naming the first such collision.
//
// Absent and empty-string buckets are each "all buckets" to the daemon but
// are compared as distinct values here: a mount point already
// claimed by an implicit-all-buckets spec conflicts with an attempt to bind
// it to an explicit-all-buckets spec, even though both ultimately mean "all
// buckets" to gcsfuse.
//
// Idempotent exact re-additions (same bucket and mount_point) are
// permitted, matching the Conflict Detector's reflexivity property.
func CheckConflicts(current, candidate string) error {
	currentSpecs, err := ParseMountList(current)
	if err != nil {
		return err
	}

	candidateSpecs, err := ParseMountList(candidate)
	if err != nil {
		return err
	}

	for _, c := range currentSpecs {
		for _, n := range candidateSpecs {
			if c.MountPoint != n.MountPoint {
				continue
			}

			if c.bucketKey() == n.bucketKey() {
				continue
			}

			return &ConflictError{
				MountPoint:   n.MountPoint,
				ExistingName: bucketDisplayName(c),
				NewName:      bucketDisplayName(n),
			}
		}
	}

	return nil
}

func bucketDisplayName(s Spec) string {
	if s.Bucket == nil {
		return "(all buckets, implicit)"
	}

	if *s.Bucket == "" {
		return "(all buckets, explicit)"
	}

	return *s.Bucket
}

// AppendMount appends a newly resolved, conflict-checked mount list to the
// accumulator, joining with ';'. It does not itself call CheckConflicts;
// callers (the option callback) must check first and only append on
// success, per the submission-side failure semantics.
func AppendMount(current, next string) string {
	if next == "" {
		return current
	}

	if current == "" {
		return next
	}

	return current + ";" + next
}
