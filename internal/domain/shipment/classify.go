package shipment

import "strings"

// Bucket is one of the coarse display groupings the storefront and consoles
// render shipment statuses into.
type Bucket string

const (
	BucketPending    Bucket = "pending"
	BucketInTransit  Bucket = "in-transit"
	BucketDelivering Bucket = "delivering"
	BucketDelivered  Bucket = "delivered"
	BucketFailed     Bucket = "failed"
	// BucketUnknown marks a status string that matched no canonical token.
	// Callers must surface it, never drop it.
	BucketUnknown Bucket = "unknown"
)

// Classify maps an opaque status string onto a display bucket using
// case-insensitive substring matching against the canonical tokens. This
// tolerates minor upstream spelling variations ("OUT FOR DELIVERY",
// "out_for_delivery") without enumerating every variant.
//
// Token order matters: "delivered" must be tested before the broader
// "deliver", and the pickup-readiness states before the generic "pending".
func Classify(raw string) Bucket {
	s := strings.ToLower(raw)

	switch {
	case strings.Contains(s, "delivered"):
		return BucketDelivered
	case strings.Contains(s, "fail"), strings.Contains(s, "return"):
		return BucketFailed
	case strings.Contains(s, "deliver"):
		// OUT_FOR_DELIVERY and friends: anything delivery-ish that is not
		// already delivered.
		return BucketDelivering
	case strings.Contains(s, "transit"), strings.Contains(s, "picked"):
		return BucketInTransit
	case strings.Contains(s, "pending"), strings.Contains(s, "ready"):
		return BucketPending
	default:
		return BucketUnknown
	}
}
