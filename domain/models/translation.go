package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"polytask/pkg/i18n"
)

// TranslatedString เก็บข้อความแยกตาม locale, persist เป็น JSONB
// เช่น {"en": "Buy milk", "de": "Milch kaufen"}
type TranslatedString map[string]string

// Get returns the translation for locale, falling back to the fallback locale,
// then to any available entry. Empty map yields "".
func (t TranslatedString) Get(locale string) string {
	if len(t) == 0 {
		return ""
	}
	if v, ok := t[locale]; ok && v != "" {
		return v
	}
	if v, ok := t[i18n.FallbackLocale]; ok && v != "" {
		return v
	}
	for _, l := range i18n.SupportedLocales {
		if v, ok := t[l]; ok && v != "" {
			return v
		}
	}
	return ""
}

// HasFallback ตรวจสอบว่ามี entry ของ fallback locale ("en") หรือไม่
func (t TranslatedString) HasFallback() bool {
	v, ok := t[i18n.FallbackLocale]
	return ok && v != ""
}

// Value implements driver.Valuer (serialize เป็น JSON)
func (t TranslatedString) Value() (driver.Value, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner
func (t *TranslatedString) Scan(value interface{}) error {
	if value == nil {
		*t = TranslatedString{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TranslatedString", value)
	}

	return json.Unmarshal(data, t)
}

func (TranslatedString) GormDataType() string {
	return "jsonb"
}

// GormDBDataType lets the sqlite test database store the column as TEXT.
func (TranslatedString) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	default:
		return "TEXT"
	}
}

// NotificationPrefs map notification-type -> enabled, persist เป็น JSONB
type NotificationPrefs map[string]bool

func (p NotificationPrefs) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *NotificationPrefs) Scan(value interface{}) error {
	if value == nil {
		*p = NotificationPrefs{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into NotificationPrefs", value)
	}

	return json.Unmarshal(data, p)
}

func (NotificationPrefs) GormDataType() string {
	return "jsonb"
}

func (NotificationPrefs) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	default:
		return "TEXT"
	}
}
