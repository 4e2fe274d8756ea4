package handler

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/list-import/internal/api/storage"
)

func DecodeListCursor(cursorStr string) (*storage.ListCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	createdAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt in cursor: %w", err)
	}

	return &storage.ListCursor{
		CreatedAt: time.Unix(0, createdAt).UTC(),
		ListID:    parts[1],
	}, nil
}

func EncodeListCursor(cursor *storage.ListCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.CreatedAt.UnixNano(), cursor.ListID)
	return base64.URLEncoding.EncodeToString([]byte(cs))
}

// DecodeRowCursor returns the row id to continue after, 0 for the first page
func DecodeRowCursor(cursorStr string) (int64, error) {
	if cursorStr == "" {
		return 0, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursorStr)
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(string(decoded), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid cursor format")
	}
	return id, nil
}

func EncodeRowCursor(rowID int64) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.FormatInt(rowID, 10)))
}
