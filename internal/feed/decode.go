package feed

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"ytgram/internal/youtrack"
)

// DecodeError is a per-record decoding failure. Such records are logged
// and skipped; they never abort the rest of a batch.
type DecodeError struct {
	RecordID string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode feed record %s: %v", e.RecordID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode turns one raw feed record into a DecodedEvent. The metadata field
// is base64-decoded, gunzipped and parsed as JSON. If since is non-zero and
// the derived timestamp is strictly before it, the record is discarded with
// a (nil, nil) return; that is a normal skip, not an error.
func Decode(record youtrack.RawFeedRecord, since int64) (*DecodedEvent, error) {
	compressed, err := base64.StdEncoding.DecodeString(record.Metadata)
	if err != nil {
		return nil, &DecodeError{RecordID: record.ID, Err: fmt.Errorf("malformed base64 metadata: %w", err)}
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &DecodeError{RecordID: record.ID, Err: fmt.Errorf("malformed gzip metadata: %w", err)}
	}
	raw, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, &DecodeError{RecordID: record.ID, Err: fmt.Errorf("failed to decompress metadata: %w", err)}
	}

	var event DecodedEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, &DecodeError{RecordID: record.ID, Err: fmt.Errorf("malformed metadata document: %w", err)}
	}

	if since != 0 && event.Timestamp() < since {
		return nil, nil
	}

	return &event, nil
}
