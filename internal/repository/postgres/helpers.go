package pgrepo

import (
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

func numericToFloat64(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, _ := n.Float64Value()
	return f.Float64
}

func float64ToNumeric(f float64) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(strconv.FormatFloat(f, 'f', -1, 64))
	return n
}

func float64PtrToNumeric(f *float64) pgtype.Numeric {
	var n pgtype.Numeric
	if f != nil {
		_ = n.Scan(strconv.FormatFloat(*f, 'f', -1, 64))
	}
	return n
}

func numericToFloat64Ptr(n pgtype.Numeric) *float64 {
	if !n.Valid {
		return nil
	}
	f, _ := n.Float64Value()
	val := f.Float64
	return &val
}

func int4ToIntPtr(n pgtype.Int4) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

func intPtrToInt4(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

// nullableUUID turns "" into SQL NULL for optional uuid columns.
func nullableUUID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// citiesParam keeps a catch-all zone's empty list from being sent as NULL.
func citiesParam(cities []string) []string {
	if cities == nil {
		return []string{}
	}
	return cities
}
