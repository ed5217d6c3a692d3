package signals

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kenja/internal/models"
)

// Users table column names, compared after lower-casing and replacing '_' with ' '.
const (
	colUserID     = "user id"
	colReputation = "reputation"
	colGold       = "gold badge count"
	colSilver     = "silver badge count"
	colBronze     = "bronze badge count"
	colAnswers    = "answer count"
	colAcceptRate = "accept rate"
	colAccepted   = "accepted answers count"
	colComments   = "comment count"
)

// LoadBehaviors reads the behavioral users table at path. The format follows the extension:
// .json (array of behavior objects), .csv, or .xlsx (header-addressed collector users table).
func LoadBehaviors(ctx context.Context, path string) (map[int64]*models.Behavior, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadBehaviorsJSON(path)
	case ".csv":
		rows, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		return behaviorsFromRows(path, rows)
	case ".xlsx":
		rows, err := readXLSX(path)
		if err != nil {
			return nil, err
		}
		return behaviorsFromRows(path, rows)
	default:
		return nil, fmt.Errorf("%w: unsupported users table format %q", ErrInputMalformed, filepath.Ext(path))
	}
}

func loadBehaviorsJSON(path string) (map[int64]*models.Behavior, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var list []*models.Behavior
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputMalformed, path, err)
	}
	out := make(map[int64]*models.Behavior, len(list))
	for _, b := range list {
		if b == nil {
			continue
		}
		out[b.UserID] = b
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputMissing, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputMalformed, path, err)
	}
	return rows, nil
}

// readXLSX returns the rows of the first sheet.
func readXLSX(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputMissing, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open Excel %s: %v", ErrInputMalformed, path, err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrInputMalformed, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: get rows for sheet %q: %v", ErrInputMalformed, sheets[0], err)
	}
	return rows, nil
}

func behaviorsFromRows(path string, rows [][]string) (map[int64]*models.Behavior, error) {
	if len(rows) == 0 {
		return map[int64]*models.Behavior{}, nil
	}
	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[normalizeColumn(name)] = i
	}
	if _, ok := cols[colUserID]; !ok {
		return nil, fmt.Errorf("%w: %s has no %q column", ErrInputMalformed, path, colUserID)
	}

	// Unparsable and non-finite cells read as 0.
	cell := func(row []string, name string) float64 {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return 0
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}

	out := make(map[int64]*models.Behavior, len(rows)-1)
	for _, row := range rows[1:] {
		idx := cols[colUserID]
		if idx >= len(row) {
			continue
		}
		uid, ok := ParseUserID(row[idx])
		if !ok {
			continue
		}
		out[uid] = &models.Behavior{
			UserID:                uid,
			Reputation:            cell(row, colReputation),
			GoldBadges:            cell(row, colGold),
			SilverBadges:          cell(row, colSilver),
			BronzeBadges:          cell(row, colBronze),
			AcceptedAnswersCount:  cell(row, colAccepted),
			TotalAnswersCount:     cell(row, colAnswers),
			AnswerAcceptanceRatio: cell(row, colAcceptRate) / 100,
			CommentCount:          cell(row, colComments),
		}
	}
	return out, nil
}

func normalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", " ")
}

// DeriveBehaviors completes behaviors from the raw signal lists: users that appear in the
// accepted-answer or comment mappings get an entry, a zero accepted-answer or comment count is
// replaced by the length of the user's list, and a zero acceptance ratio is derived from the
// accepted and total answer counts. behaviors may be nil.
func DeriveBehaviors(behaviors map[int64]*models.Behavior, inputs *Inputs) map[int64]*models.Behavior {
	if behaviors == nil {
		behaviors = make(map[int64]*models.Behavior)
	}
	get := func(uid int64) *models.Behavior {
		b, ok := behaviors[uid]
		if !ok {
			b = &models.Behavior{UserID: uid}
			behaviors[uid] = b
		}
		return b
	}
	if inputs != nil {
		for key, tags := range inputs.Tags[models.SignalAccepted] {
			if uid, ok := ParseUserID(key); ok {
				if b := get(uid); b.AcceptedAnswersCount == 0 {
					b.AcceptedAnswersCount = float64(len(tags))
				}
			}
		}
		for key, tags := range inputs.Tags[models.SignalComments] {
			if uid, ok := ParseUserID(key); ok {
				if b := get(uid); b.CommentCount == 0 {
					b.CommentCount = float64(len(tags))
				}
			}
		}
	}
	for _, b := range behaviors {
		if b.AnswerAcceptanceRatio == 0 && b.TotalAnswersCount > 0 {
			b.AnswerAcceptanceRatio = b.AcceptedAnswersCount / b.TotalAnswersCount
		}
	}
	return behaviors
}
