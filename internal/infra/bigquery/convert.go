package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// numericScale is the fractional precision of the BigQuery NUMERIC type.
const numericScale = 9

func toRat(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func fromRat(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toNullRat(d *decimal.Decimal) *big.Rat {
	if d == nil {
		return nil
	}
	return d.Rat()
}

func fromNullRat(r *big.Rat) *decimal.Decimal {
	if r == nil {
		return nil
	}
	d := fromRat(r)
	return &d
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullDate(d *civil.Date) bigquery.NullDate {
	if d == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: *d, Valid: true}
}

func fromNullDate(d bigquery.NullDate) *civil.Date {
	if !d.Valid {
		return nil
	}
	v := d.Date
	return &v
}

func nullTimestamp(t time.Time) bigquery.NullTimestamp {
	return bigquery.NullTimestamp{Timestamp: t, Valid: !t.IsZero()}
}

func fromNullTimestamp(t bigquery.NullTimestamp) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Timestamp
}
