package models

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EpochMillis normalizes a timestamp of any of the shapes the remote store
// hands back (epoch millis as int or float, an RFC3339 or numeric string,
// a time.Time, or the driver-native DateTime) to epoch milliseconds.
// Unrecognized values normalize to 0.
func EpochMillis(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case primitive.DateTime:
		return int64(t)
	case time.Time:
		return t.UnixMilli()
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UnixMilli()
		}
		return 0
	}
	return 0
}
