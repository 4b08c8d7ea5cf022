package feed

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"ytgram/internal/youtrack"
)

func encodeMetadata(t *testing.T, doc any) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func metadataDoc(timestamp int64) map[string]any {
	return map[string]any{
		"header": "Issue Updated",
		"issue": map[string]any{
			"id":      "DEMO-1",
			"project": map[string]any{"id": "0-1", "name": "Demo"},
			"summary": "Broken login",
		},
		"change": map[string]any{
			"startTimestamp": timestamp,
			"events":         []any{},
		},
	}
}

func TestDecode_ValidRecord(t *testing.T) {
	record := youtrack.RawFeedRecord{
		ID:       "n-1",
		Metadata: encodeMetadata(t, metadataDoc(1700000000000)),
	}

	event, err := Decode(record, 0)
	require.NoError(t, err)
	require.NotNil(t, event)
	require.Equal(t, "DEMO-1", event.Issue.ID)
	require.Equal(t, "Demo", event.Issue.Project.Name)
	require.Equal(t, int64(1700000000000), event.Timestamp())
}

func TestDecode_TimestampFallsBackToEndTimestamp(t *testing.T) {
	doc := metadataDoc(0)
	doc["change"] = map[string]any{
		"endTimestamp": 1700000000500,
	}
	record := youtrack.RawFeedRecord{ID: "n-2", Metadata: encodeMetadata(t, doc)}

	event, err := Decode(record, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1700000000500), event.Timestamp())
}

func TestDecode_SkipsRecordBeforeWatermark(t *testing.T) {
	record := youtrack.RawFeedRecord{
		ID:       "n-3",
		Metadata: encodeMetadata(t, metadataDoc(1000)),
	}

	// Strictly-before is a skip, not an error.
	event, err := Decode(record, 2000)
	require.NoError(t, err)
	require.Nil(t, event)

	// At or after the watermark the record survives.
	event, err = Decode(record, 1000)
	require.NoError(t, err)
	require.NotNil(t, event)
}

func TestDecode_TimestamplessRecordSkippedOnceWatermarkSet(t *testing.T) {
	doc := metadataDoc(0)
	doc["change"] = map[string]any{
		"events": []any{},
	}
	record := youtrack.RawFeedRecord{ID: "n-4", Metadata: encodeMetadata(t, doc)}

	// No derivable timestamp means zero, which a live watermark discards.
	event, err := Decode(record, 2000)
	require.NoError(t, err)
	require.Nil(t, event)

	// With no watermark the record passes through.
	event, err = Decode(record, 0)
	require.NoError(t, err)
	require.NotNil(t, event)
	require.Zero(t, event.Timestamp())
}

func TestDecode_MalformedRecords(t *testing.T) {
	valid := encodeMetadata(t, metadataDoc(1))

	// Base64 of gzip of invalid JSON.
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("{not json"))
	_ = zw.Close()
	badJSON := base64.StdEncoding.EncodeToString(buf.Bytes())

	tests := []struct {
		name     string
		metadata string
	}{
		{"bad base64", "!!!not-base64!!!"},
		{"bad gzip", base64.StdEncoding.EncodeToString([]byte("plainly not gzip"))},
		{"bad json", badJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(youtrack.RawFeedRecord{ID: "n-bad", Metadata: tt.metadata}, 0)
			require.Error(t, err)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			require.Equal(t, "n-bad", decodeErr.RecordID)
		})
	}

	// Sanity: the valid metadata still decodes.
	_, err := Decode(youtrack.RawFeedRecord{ID: "n-ok", Metadata: valid}, 0)
	require.NoError(t, err)
}
