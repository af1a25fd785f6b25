package application

import (
	"strings"

	"github.com/bnema/opq/internal/domain"
)

// itemRule adds template-specific fields on top of the shared base shape.
type itemRule func(base domain.BaseItem, rec itemRecord) domain.Item

const passwordFieldType = "P"

// New templates get an entry here; the base shape stays untouched.
func defaultItemRules() map[domain.TemplateID]itemRule {
	return map[domain.TemplateID]itemRule{
		domain.LoginTemplateID: loginItem,
	}
}

func loginItem(base domain.BaseItem, rec itemRecord) domain.Item {
	item := domain.LoginItem{
		BaseItem: base,
		Username: rec.Overview.AInfo,
	}

	if field, ok := passwordField(rec.Details.Fields); ok {
		password := field.Value
		item.Password = &password
	}

	return item
}

// passwordField prefers a field named "password" over one designated as such.
func passwordField(fields []itemField) (itemField, bool) {
	for _, f := range fields {
		if f.Type == passwordFieldType && strings.EqualFold(f.Name, "password") {
			return f, true
		}
	}

	for _, f := range fields {
		if f.Type == passwordFieldType && strings.EqualFold(f.Designation, "password") {
			return f, true
		}
	}

	return itemField{}, false
}
