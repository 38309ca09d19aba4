package sqlstore

import (
	"fmt"
	"strings"

	"dompet/internal/query"
)

var columns = map[query.Field]string{
	query.FieldUserID:     "user_id",
	query.FieldKind:       "kind",
	query.FieldAccountID:  "account_id",
	query.FieldCategoryID: "category_id",
	query.FieldNote:       "note",
	query.FieldOccurredAt: "occurred_at",
}

// folded holds the columns written with query.Fold of their source field.
// SQLite's LOWER only folds ASCII.
var folded = map[query.Field]string{
	query.FieldNote: "note_folded",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where compiles f into a WHERE clause body with ? placeholders.
func (d Dialect) where(f query.Filter) (string, []any, error) {
	preds := f.Predicates()
	if len(preds) == 0 {
		return "1 = 1", nil, nil
	}
	var (
		parts []string
		args  []any
	)
	for _, p := range preds {
		clause, err := d.predicate(p, &args)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, clause)
	}
	return strings.Join(parts, " AND "), args, nil
}

func (d Dialect) predicate(p query.Predicate, args *[]any) (string, error) {
	if p.Op == query.OpOr {
		if len(p.Any) == 0 {
			return "1 = 0", nil
		}
		parts := make([]string, 0, len(p.Any))
		for _, sub := range p.Any {
			clause, err := d.predicate(sub, args)
			if err != nil {
				return "", err
			}
			parts = append(parts, clause)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	}

	col, ok := columns[p.Field]
	if !ok {
		return "", fmt.Errorf("unknown filter field %q", p.Field)
	}

	switch p.Op {
	case query.OpEq:
		*args = append(*args, p.Value)
		return col + " = ?", nil
	case query.OpIn:
		if len(p.Values) == 0 {
			return "1 = 0", nil
		}
		marks := make([]string, len(p.Values))
		for i, v := range p.Values {
			marks[i] = "?"
			*args = append(*args, v)
		}
		return col + " IN (" + strings.Join(marks, ", ") + ")", nil
	case query.OpBetween:
		*args = append(*args, p.Start.UnixMilli(), p.End.UnixMilli())
		return col + " BETWEEN ? AND ?", nil
	case query.OpContainsFold:
		*args = append(*args, "%"+likeEscaper.Replace(query.Fold(p.Value))+"%")
		if fc, ok := folded[p.Field]; ok {
			return fc + ` LIKE ? ESCAPE '\'`, nil
		}
		return "LOWER(" + col + `) LIKE ? ESCAPE '\'`, nil
	case query.OpDayOfMonth:
		*args = append(*args, p.Day)
		return d.dayOfMonth(col) + " = ?", nil
	case query.OpDayAndMonth:
		*args = append(*args, p.Day, int(p.Month))
		return "(" + d.dayOfMonth(col) + " = ? AND " + d.month(col) + " = ?)", nil
	default:
		return "", fmt.Errorf("unsupported filter op %d", p.Op)
	}
}
