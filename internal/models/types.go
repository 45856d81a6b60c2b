package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is stored as a Postgres text[] and as array literal text elsewhere.
type StringList []string

// GormDBDataType picks the column type per dialect.
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(l).Value()
}

func (l *StringList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = StringList(arr)
	return nil
}
