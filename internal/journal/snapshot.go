package journal

import (
	"context"
	"io"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

// ImportResult describes what an import changed.
type ImportResult struct {
	Format   store.Format `json:"format"`
	Trades   int          `json:"trades"`
	Skipped  int          `json:"skipped"`
	Replaced bool         `json:"replaced"`
}

// Export writes the current document in format f.
func (s *Service) Export(ctx context.Context, w io.Writer, f store.Format) error {
	doc, err := s.Document(ctx)
	if err != nil {
		return err
	}
	return store.Export(w, doc, f)
}

// Import reads a snapshot. With replace set, a JSON or YAML snapshot
// replaces the whole document; otherwise, and always for CSV, its trades
// are appended and trades whose ID already exists are skipped.
// Achievements are revalidated either way.
func (s *Service) Import(ctx context.Context, r io.Reader, f store.Format, replace bool) (ImportResult, error) {
	incoming, err := store.Import(r, f)
	if err != nil {
		return ImportResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Format: f}
	var next *models.Document
	if replace && f != store.FormatCSV {
		next = incoming
		res.Replaced = true
		res.Trades = len(incoming.Trades)
	} else {
		next = s.doc.Clone()
		for _, t := range incoming.Trades {
			if next.FindTrade(t.ID) >= 0 {
				res.Skipped++
				continue
			}
			next.Trades = append(next.Trades, prepare(t))
			res.Trades++
		}
	}

	if err := s.commit(ctx, next); err != nil {
		return ImportResult{}, apperrors.Wrap(err, "import")
	}
	l := s.log(ctx)
	l.Info().
		Str("format", string(f)).
		Int("trades", res.Trades).
		Int("skipped", res.Skipped).
		Bool("replaced", res.Replaced).
		Msg("Snapshot imported")
	return res, nil
}
