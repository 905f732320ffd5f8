package repository

import (
	"encoding/base64"
	"time"
)

// timeFormat must not lose precision against the storage backends
// (datetime(6) on MySQL, microseconds on Mongo): a truncated cursor decodes
// to a time before the stored value and the exclusive window re-includes the
// boundary row.
const timeFormat = time.RFC3339Nano

// EncodeCursor will encode the timestamp into an opaque pagination cursor
func EncodeCursor(t time.Time) string {
	timeString := t.Format(timeFormat)
	return base64.StdEncoding.EncodeToString([]byte(timeString))
}

// DecodeCursor will decode the cursor back into a timestamp
func DecodeCursor(encodedTime string) (time.Time, error) {
	byt, err := base64.StdEncoding.DecodeString(encodedTime)
	if err != nil {
		return time.Time{}, err
	}

	timeString := string(byt)
	t, err := time.Parse(timeFormat, timeString)
	return t, err
}
