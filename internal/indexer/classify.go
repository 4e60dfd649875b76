package indexer

import "strings"

// ClassRule maps a path substring to a directory-type label.
type ClassRule struct {
	Substring string
	Label     string
}

// Yii2Rules is the Yii2 directory classification, in priority order.
var Yii2Rules = []ClassRule{
	{"controllers", "controllers"},
	{"models", "models"},
	{"views", "views"},
	{"config", "config"},
	{"migrations", "migrations"},
	{"widgets", "widgets"},
	{"helpers", "helpers"},
	{"modules", "modules"},
	{"assets", "assets"},
}

// BitrixRules is the Bitrix directory classification, in priority order.
var BitrixRules = []ClassRule{
	{"local", "local"},
	{"modules", "modules"},
	{"components", "components"},
	{"templates", "templates"},
	{".default", "default"},
}

// Classifier labels directories by the first rule whose substring occurs in
// the lower-cased full path.
type Classifier struct {
	rules []ClassRule
}

// NewClassifier creates a classifier. Rules are checked in the given order.
func NewClassifier(rules []ClassRule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the label for dir, or false when no rule matches.
func (c *Classifier) Classify(dir string) (string, bool) {
	lower := strings.ToLower(dir)
	for _, r := range c.rules {
		if strings.Contains(lower, r.Substring) {
			return r.Label, true
		}
	}
	return "", false
}
