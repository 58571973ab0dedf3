package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// ErrInvalidToken is returned for tokens that were not produced by EncodeEntryCursor.
var ErrInvalidToken = errors.New("invalid pagination token")

// EncodeEntryCursor creates an opaque token pointing just past the given entry
// in a (created_at DESC, id DESC) listing. The token is safe to pass in a URL.
func EncodeEntryCursor(createdAt time.Time, entryID int64) string {
	tokenStr := fmt.Sprintf("%s|%d", createdAt.UTC().Format(timeFormat), entryID)
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeEntryCursor parses a token created by EncodeEntryCursor.
func DecodeEntryCursor(token string) (time.Time, int64, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w (base64 decode): %v", ErrInvalidToken, err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("%w (split)", ErrInvalidToken)
	}

	createdAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w (created_at parse): %v", ErrInvalidToken, err)
	}

	entryID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || entryID <= 0 {
		return time.Time{}, 0, fmt.Errorf("%w (entry id parse)", ErrInvalidToken)
	}

	return createdAt, entryID, nil
}
