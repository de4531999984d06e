package model

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"iara.com/iarasync/utils"
)

const microsecondsPerDay = 86_400_000_000

// Interval is a plan duration. Postgres returns it as interval text,
// stores without an interval type keep whole days as an integer.
type Interval struct {
	Months       int32
	Days         int32
	Microseconds int64
}

// Days returns an Interval of n days.
func Days(n int32) Interval {
	return Interval{Days: n}
}

// TotalDays counts a month as 30 days and floors the sub-day part, so
// "30 days -01:00:00" is 29 days.
func (iv Interval) TotalDays() int64 {
	return int64(iv.Months)*30 + int64(iv.Days) + utils.FloorDiv(iv.Microseconds, microsecondsPerDay)
}

func (iv *Interval) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*iv = Interval{}
		return nil
	case int64:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("interval of %d days is out of range", v)
		}
		*iv = Interval{Days: int32(v)}
		return nil
	case float64:
		days := math.Floor(v)
		if math.IsNaN(days) || days < math.MinInt32 || days > math.MaxInt32 {
			return fmt.Errorf("interval of %v days is out of range", v)
		}
		*iv = Interval{Days: int32(days)}
		return nil
	case []byte:
		return iv.parse(string(v))
	case string:
		return iv.parse(v)
	}
	return fmt.Errorf("cannot scan %T into Interval", src)
}

func (iv *Interval) parse(s string) error {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		*iv = Interval{Days: int32(n)}
		return nil
	}

	var pg pgtype.Interval
	if err := pg.Scan(s); err != nil {
		return fmt.Errorf("parse interval %q: %w", s, err)
	}
	*iv = Interval{Months: pg.Months, Days: pg.Days, Microseconds: pg.Microseconds}
	return nil
}

func (iv Interval) Value() (driver.Value, error) {
	return pgtype.Interval{
		Months:       iv.Months,
		Days:         iv.Days,
		Microseconds: iv.Microseconds,
		Valid:        true,
	}.Value()
}

func (Interval) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "interval"
	}
	return "bigint"
}

// GormValue writes interval text on postgres and whole days elsewhere.
func (iv Interval) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	if db.Dialector.Name() == "postgres" {
		v, _ := iv.Value()
		return clause.Expr{SQL: "?::interval", Vars: []any{v}}
	}
	return clause.Expr{SQL: "?", Vars: []any{iv.TotalDays()}}
}
