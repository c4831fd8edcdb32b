package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const cursorSeparator = ","

// EncodeCursor creates an opaque load-more token from the offset the next
// page starts at and the total the page was rendered with. A resubmitted
// form carries a token that no longer matches the coordinator's state.
func EncodeCursor(offset, total int) string {
	key := fmt.Sprintf("%d%s%d", offset, cursorSeparator, total)
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(encodedCursor string) (offset, total int, err error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(encodedCursor)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	parts := strings.SplitN(string(decodedBytes), cursorSeparator, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cursor format")
	}

	offset, err = strconv.Atoi(parts[0])
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset in cursor: %q", parts[0])
	}
	total, err = strconv.Atoi(parts[1])
	if err != nil || total < 0 {
		return 0, 0, fmt.Errorf("invalid total in cursor: %q", parts[1])
	}
	return offset, total, nil
}
