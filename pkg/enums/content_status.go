package enums

import "fmt"

// ContentStatus describes the review lifecycle state of a content item.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusSubmitted ContentStatus = "submitted"
	ContentStatusApproved  ContentStatus = "approved"
	ContentStatusRejected  ContentStatus = "rejected"
)

var validContentStatuses = []ContentStatus{
	ContentStatusDraft,
	ContentStatusSubmitted,
	ContentStatusApproved,
	ContentStatusRejected,
}

// String returns the literal string for the status.
func (c ContentStatus) String() string {
	return string(c)
}

// IsValid reports whether the status is known.
func (c ContentStatus) IsValid() bool {
	for _, candidate := range validContentStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// draft -> submitted, submitted -> approved|rejected, rejected -> submitted,
// and approved -> submitted (post-publish correction).
func (c ContentStatus) CanTransitionTo(next ContentStatus) bool {
	switch c {
	case ContentStatusDraft:
		return next == ContentStatusSubmitted
	case ContentStatusSubmitted:
		return next == ContentStatusApproved || next == ContentStatusRejected
	case ContentStatusRejected:
		return next == ContentStatusSubmitted
	case ContentStatusApproved:
		return next == ContentStatusSubmitted
	default:
		return false
	}
}

// ParseContentStatus converts raw input into a ContentStatus.
func ParseContentStatus(value string) (ContentStatus, error) {
	for _, candidate := range validContentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid content status %q", value)
}
