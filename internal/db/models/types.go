package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedScanType is returned when a json column holds an unexpected driver type.
var ErrUnsupportedScanType = errors.New("unsupported scan type for json column")

// StringList is a string slice persisted as a json array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}

	out, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	raw, err := scanBytes(src)
	if err != nil {
		return err
	}

	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}

	return json.Unmarshal(raw, (*[]string)(l))
}

// GormDataType tells gorm which column type to create.
func (StringList) GormDataType() string {
	return "text"
}

// JSON is an arbitrary json document persisted as text.
type JSON json.RawMessage

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}

	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSON) Scan(src interface{}) error {
	raw, err := scanBytes(src)
	if err != nil {
		return err
	}

	*j = append((*j)[0:0], raw...)

	return nil
}

// MarshalJSON returns the stored document, null when empty.
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}

	return j, nil
}

// UnmarshalJSON stores a copy of data.
func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = append((*j)[0:0], data...)
	return nil
}

// GormDataType tells gorm which column type to create.
func (JSON) GormDataType() string {
	return "text"
}

func scanBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedScanType, src)
	}
}
