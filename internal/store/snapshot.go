package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Format is a snapshot serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts json, yaml/yml and csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", apperrors.Wrapf(apperrors.ErrUnsupportedFormat, "%q", s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Export writes doc in format f. CSV carries trades only, with derived
// pnl and R columns appended.
func Export(w io.Writer, doc *models.Document, f Format) error {
	if doc == nil {
		doc = models.NewDocument(0)
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		rows := make([]*csvRow, 0, len(doc.Trades))
		for _, t := range doc.Trades {
			rows = append(rows, newCSVRow(t))
		}
		return gocsv.Marshal(rows, w)
	default:
		return apperrors.Wrapf(apperrors.ErrUnsupportedFormat, "%q", string(f))
	}
}

// Import reads a snapshot and returns a normalized document. A CSV
// snapshot yields a document containing only trades.
func Import(r io.Reader, f Format) (*models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewImportError(string(f), 0, err)
	}

	var doc *models.Document
	switch f {
	case FormatJSON:
		if doc, err = Decode(data); err != nil {
			return nil, apperrors.NewImportError(string(f), 0, err)
		}
	case FormatYAML:
		doc = models.NewDocument(0)
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, apperrors.NewImportError(string(f), 0, err)
		}
	case FormatCSV:
		if doc, err = importCSV(data); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.NewImportError(string(f), 0, apperrors.ErrUnsupportedFormat)
	}

	canonicalize(doc)
	models.Normalize(doc)
	return doc, nil
}

// canonicalize maps loosely spelled enums onto their canonical values.
func canonicalize(doc *models.Document) {
	for i := range doc.Trades {
		t := &doc.Trades[i]
		if d, ok := models.ParseDirection(string(t.Direction)); ok {
			t.Direction = d
		}
		if m, ok := models.ParseMentalState(string(t.MentalStateTag)); ok {
			t.MentalStateTag = m
		}
	}
}

type csvRow struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Time        string `csv:"time"`
	Symbol      string `csv:"symbol"`
	Direction   string `csv:"direction"`
	Quantity    string `csv:"quantity"`
	EntryPrice  string `csv:"entry_price"`
	ExitPrice   string `csv:"exit_price"`
	StopLoss    string `csv:"stop_loss"`
	Fees        string `csv:"fees"`
	Strategy    string `csv:"strategy"`
	MentalState string `csv:"mental_state"`
	Notes       string `csv:"notes"`
	PnL         string `csv:"pnl"`
	RMultiple   string `csv:"r_multiple"`
	RiskReward  string `csv:"risk_reward"`
}

func newCSVRow(t models.Trade) *csvRow {
	m := analytics.Compute(analytics.ResolveLegs(t))
	row := &csvRow{
		ID:          t.ID,
		Date:        t.Date,
		Time:        t.Time,
		Symbol:      t.Symbol,
		Direction:   string(t.Direction),
		Quantity:    formatNum(t.Quantity),
		EntryPrice:  formatNum(t.EntryPrice),
		ExitPrice:   formatNum(t.ExitPrice),
		Fees:        formatNum(t.Fees),
		Strategy:    t.StrategyLabel,
		MentalState: string(t.MentalStateTag),
		Notes:       t.Notes,
		PnL:         formatNum(m.PnL),
		RMultiple:   formatNum(m.RMultiple),
		RiskReward:  m.RiskReward,
	}
	if t.StopLoss != nil {
		row.StopLoss = formatNum(*t.StopLoss)
	}
	return row
}

func importCSV(data []byte) (*models.Document, error) {
	var rows []*csvRow
	if err := gocsv.Unmarshal(bytes.NewReader(data), &rows); err != nil {
		return nil, apperrors.NewImportError(string(FormatCSV), 0, err)
	}

	doc := models.NewDocument(0)
	for i, row := range rows {
		if row == nil {
			continue
		}
		t, err := row.trade()
		if err != nil {
			// Header is line 1.
			return nil, apperrors.NewImportError(string(FormatCSV), i+2, err)
		}
		doc.Trades = append(doc.Trades, t)
	}
	return doc, nil
}

func (r *csvRow) trade() (models.Trade, error) {
	if strings.TrimSpace(r.Date) == "" {
		return models.Trade{}, fmt.Errorf("missing date")
	}
	t := models.Trade{
		ID:             strings.TrimSpace(r.ID),
		Date:           strings.TrimSpace(r.Date),
		Time:           strings.TrimSpace(r.Time),
		Symbol:         strings.TrimSpace(r.Symbol),
		Direction:      models.Direction(strings.TrimSpace(r.Direction)),
		Quantity:       parseNum(r.Quantity),
		EntryPrice:     parseNum(r.EntryPrice),
		ExitPrice:      parseNum(r.ExitPrice),
		Fees:           parseNum(r.Fees),
		StrategyLabel:  strings.TrimSpace(r.Strategy),
		MentalStateTag: models.MentalState(strings.TrimSpace(r.MentalState)),
		Notes:          r.Notes,
	}
	if stop := parseNum(r.StopLoss); !math.IsNaN(stop) {
		t.StopLoss = &stop
	}
	return t, nil
}

func formatNum(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNum returns NaN for blank or unparsable cells.
func parseNum(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
