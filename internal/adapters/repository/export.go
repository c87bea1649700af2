package repository

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/emotrack/internal/domain/model"
)

// exportRecord is the wire shape of one exported observation. Field names
// and label strings round-trip exactly back to the stored values.
type exportRecord struct {
	ID         uint64  `json:"id"`
	Timestamp  float64 `json:"timestamp"`
	Emotion    string  `json:"emotion"`
	RecordedAt string  `json:"recorded_at"`
}

func toExportRecord(obs model.Observation) exportRecord {
	return exportRecord{
		ID:         obs.ID,
		Timestamp:  obs.Timestamp,
		Emotion:    obs.Emotion.String(),
		RecordedAt: obs.RecordedAt.Format(time.RFC3339Nano),
	}
}

// encodeExport serializes observations in the requested format.
func encodeExport(observations []model.Observation, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		records := make([]exportRecord, len(observations))
		for i, obs := range observations {
			records[i] = toExportRecord(obs)
		}
		return json.MarshalIndent(records, "", "  ")

	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"id", "timestamp", "emotion", "recorded_at"}); err != nil {
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		for _, obs := range observations {
			rec := toExportRecord(obs)
			row := []string{
				strconv.FormatUint(rec.ID, 10),
				strconv.FormatFloat(rec.Timestamp, 'f', -1, 64),
				rec.Emotion,
				rec.RecordedAt,
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("flush csv: %w", err)
		}
		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
