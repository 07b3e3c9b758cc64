package gcsfusemount

import "strings"

// Spec is a parsed mount spec: the logical triple (bucket, mount_point,
// flags).
//
// Bucket is nil for "implicit all-buckets" (no colon, or no bucket segment
// before the first colon in a path-like token), a pointer to an empty
// string for "explicit all-buckets" (a leading ":mp"), and a pointer to a
// non-empty string for an explicit bucket name. Absent and empty-string
// buckets are both "all buckets" to the daemon, but they are distinct
// values here: the Conflict Detector must not silently merge them.
type Spec struct {
	Bucket     *string
	MountPoint string
	Flags      string
}

// HasExplicitBucket reports whether Bucket names a specific, non-empty
// bucket (as opposed to absent or explicit-empty "all buckets").
func (s Spec) HasExplicitBucket() bool {
	return s.Bucket != nil && *s.Bucket != ""
}

// bucketKey returns a value suitable for equality comparison in the
// Conflict Detector: absent and empty-string buckets must compare equal to
// themselves but not to each other, so we tag each case distinctly rather
// than collapsing a nil Bucket to "".
func (s Spec) bucketKey() string {
	if s.Bucket == nil {
		return "\x00absent"
	}

	return "\x00explicit:" + *s.Bucket
}

// String renders the canonical serialized form of a Spec: [BUCKET]:mp[:flags],
// omitting the bucket segment entirely when Bucket is nil (Case D/A) and
// the flags segment when Flags is empty.
func (s Spec) String() string {
	var b strings.Builder

	if s.Bucket != nil {
		b.WriteString(*s.Bucket)
		b.WriteByte(':')
	}

	b.WriteString(s.MountPoint)

	if s.Flags != "" {
		b.WriteByte(':')
		b.WriteString(s.Flags)
	}

	return b.String()
}

// ParseSpec parses one semicolon-delimited token of a --gcsfuse-mount
// argument into a Spec.
//
// Disambiguation:
//
//	Case A: first segment (before the first colon) contains '/' -> it is a
//	        path, not a bucket. Bucket is absent; MountPoint is the first
//	        segment; Flags is everything after the first colon.
//	Case B: first segment is empty ("" before the first colon, i.e. the
//	        token starts with ':') -> Bucket is explicit-empty ("");
//	        MountPoint is the second segment; Flags is everything after
//	        the second colon.
//	Case C: first segment is non-empty and contains no '/' -> it is a
//	        bucket name. Bucket is that segment; MountPoint is the second
//	        segment; Flags is everything after the second colon.
//	Case D: no colon anywhere in the token -> Bucket is absent; MountPoint
//	        is the whole token.
//
// Ambiguous user intent (a bucket name containing '/', which object
// storage bucket names cannot do) is resolved in favor of the path
// interpretation (Case A), since object storage bucket names cannot contain '/'.
//
// An empty MountPoint is a parse failure. Flags is never tokenized; its
// whitespace is preserved verbatim.
func ParseSpec(token string) (Spec, error) {
	firstColon := strings.IndexByte(token, ':')

	if firstColon < 0 {
		// Case D: no colon at all.
		if token == "" {
			return Spec{}, &ParseError{Token: token, Reason: "empty mount point"}
		}

		return Spec{MountPoint: token}, nil
	}

	firstSegment := token[:firstColon]

	if strings.Contains(firstSegment, "/") {
		// Case A: the first segment is a path, not a bucket.
		mountPoint := firstSegment
		flags := token[firstColon+1:]

		if mountPoint == "" {
			return Spec{}, &ParseError{Token: token, Reason: "empty mount point"}
		}

		return Spec{MountPoint: mountPoint, Flags: flags}, nil
	}

	rest := token[firstColon+1:]
	secondColon := strings.IndexByte(rest, ':')

	var mountPoint, flags string
	if secondColon < 0 {
		mountPoint = rest
	} else {
		mountPoint = rest[:secondColon]
		flags = rest[secondColon+1:]
	}

	if mountPoint == "" {
		return Spec{}, &ParseError{Token: token, Reason: "empty mount point"}
	}

	if firstSegment == "" {
		// Case B: explicit "all buckets".
		bucket := ""

		return Spec{Bucket: &bucket, MountPoint: mountPoint, Flags: flags}, nil
	}

	// Case C: explicit bucket name.
	bucket := firstSegment

	return Spec{Bucket: &bucket, MountPoint: mountPoint, Flags: flags}, nil
}

// SplitMountList splits a semicolon-delimited GCSFUSE_MOUNTS-style list
// into its raw tokens. An empty list yields a nil slice, not a slice
// containing one empty token.
func SplitMountList(list string) []string {
	if list == "" {
		return nil
	}

	return strings.Split(list, ";")
}

// JoinMountList is the inverse of SplitMountList.
func JoinMountList(tokens []string) string {
	return strings.Join(tokens, ";")
}

// ParseMountList parses every token of a semicolon-delimited mount list.
// It stops at the first parse failure and returns it; callers that need
// "skip malformed tokens, continue" behavior should call ParseSpec
// per-token instead. (Neither the submission-side option callback nor
// UserInit in cmd/gcsfuse-spank does: both fail the whole list.)
func ParseMountList(list string) ([]Spec, error) {
	tokens := SplitMountList(list)
	specs := make([]Spec, 0, len(tokens))

	for _, token := range tokens {
		spec, err := ParseSpec(token)
		if err != nil {
			return nil, err
		}

		specs = append(specs, spec)
	}

	return specs, nil
}
