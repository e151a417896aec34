package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"billtools/internal/logger"
	"billtools/pkg/models"
)

// JSONLSink writes one schema-checked JSON object per fact.
type JSONLSink struct {
	w      io.Writer
	tenant string
	log    zerolog.Logger
}

// record is a fact with the caller's tenant attached.
type record struct {
	Tenant string `json:"tenant,omitempty"`
	*models.ExtractedFact
}

// NewJSONLSink creates a sink writing to w.
func NewJSONLSink(w io.Writer, tenant string) *JSONLSink {
	return &JSONLSink{
		w:      w,
		tenant: tenant,
		log:    logger.WithComponent("export.jsonl"),
	}
}

// Write validates every fact first and writes nothing when one is invalid.
func (s *JSONLSink) Write(ctx context.Context, facts []*models.ExtractedFact) error {
	const op = "Write"

	for _, f := range facts {
		if err := Validate(f); err != nil {
			return fmt.Errorf("%s: %s: %w", op, f.FileName, err)
		}
	}

	enc := json.NewEncoder(s.w)
	enc.SetEscapeHTML(false)
	for _, f := range facts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(record{Tenant: s.tenant, ExtractedFact: f}); err != nil {
			return fmt.Errorf("%s: failed to encode %s: %w", op, f.FileName, err)
		}
	}

	s.log.Debug().Int("facts", len(facts)).Msg("Facts written as JSON lines")
	return nil
}
