package domain

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Product struct {
	ID       uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Title    string          `gorm:"size:255;not null" json:"title"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Image    *string         `gorm:"type:text" json:"image"`
	Category *string         `gorm:"size:100" json:"category"`
	Colors   StringList      `json:"colors"`
	Quantity int             `gorm:"not null" json:"quantity"`
	Sizes    StringList      `json:"sizes"`
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Product) Clone() Product {
	out := p
	if p.Image != nil {
		v := *p.Image
		out.Image = &v
	}
	if p.Category != nil {
		v := *p.Category
		out.Category = &v
	}
	out.Colors = p.Colors.clone()
	out.Sizes = p.Sizes.clone()
	return out
}

// StringList is stored as a Postgres text[] column. Other dialects keep the
// array literal in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *StringList) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	if arr == nil {
		*l = nil
		return nil
	}
	*l = StringList(arr)
	return nil
}

func (StringList) GormDataType() string {
	return "text[]"
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (l StringList) clone() StringList {
	if l == nil {
		return nil
	}
	return append(StringList(nil), l...)
}
