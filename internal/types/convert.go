package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// NormalizeKey converts a key or identifier value into the form used for
// comparisons. Values that parse as UUIDs (bare, braced, urn:uuid: or 16 raw
// bytes) become canonical lower-case UUID strings, so "{F9158A1D-...}" and
// "f9158a1d-..." compare equal. Returns "" for null or blank values.
func NormalizeKey(v interface{}) string {
	switch k := v.(type) {
	case nil:
		return ""
	case uuid.UUID:
		if k == uuid.Nil {
			return ""
		}
		return k.String()
	case string:
		return normalizeString(k)
	case []byte:
		if len(k) == 16 {
			u, _ := uuid.FromBytes(k)
			return u.String()
		}
		return normalizeString(string(k))
	case int64:
		return strconv.FormatInt(k, 10)
	case int:
		return strconv.Itoa(k)
	case int32:
		return strconv.FormatInt(int64(k), 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(k), 'f', -1, 32)
	default:
		return normalizeString(fmt.Sprint(k))
	}
}

func normalizeString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return s
}

// ToString renders an attribute value for reports and logs.
// 16-byte slices are shown as GUIDs; other byte slices that are not valid
// UTF-8 (geometry blobs) are summarised by length.
func ToString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return "<null>"
	case string:
		return s
	case []byte:
		if len(s) == 16 {
			u, _ := uuid.FromBytes(s)
			return "{" + strings.ToUpper(u.String()) + "}"
		}
		if !utf8.Valid(s) {
			return fmt.Sprintf("<%d bytes>", len(s))
		}
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprint(s)
	}
}
