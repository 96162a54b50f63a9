// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-storedconfig.
//
// go-storedconfig is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package value

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
)

// StringValue holds a single text setting.
type StringValue struct {
	value string
}

// NewStringValue returns a StringValue holding s.
func NewStringValue(s string) *StringValue {
	return &StringValue{value: s}
}

// String returns the held text.
func (v *StringValue) String() string {
	return v.value
}

func (v *StringValue) ToXMLValues(valueElementName string) []*etree.Element {
	el := etree.NewElement(valueElementName)
	el.SetText(v.value)
	return []*etree.Element{el}
}

func (v *StringValue) ToNativeObject() any {
	return v.value
}

// Validate checks the value against the setting's Required, MaxLength and
// Pattern constraints.
func (v *StringValue) Validate(s *setting.Setting) []string {
	problems := []string{}
	if s == nil {
		return problems
	}

	if s.Required && v.value == "" {
		problems = append(problems, fmt.Sprintf("%s: a value is required", s.Key))
	}
	if s.MaxLength > 0 && utf8.RuneCountInString(v.value) > s.MaxLength {
		problems = append(problems, fmt.Sprintf("%s: value exceeds maximum length of %d", s.Key, s.MaxLength))
	}
	if v.value != "" {
		re, err := s.Regexp()
		switch {
		case err != nil:
			problems = append(problems, err.Error())
		case re != nil && !re.MatchString(v.value):
			problems = append(problems, fmt.Sprintf("%s: value does not match pattern %s", s.Key, s.Pattern))
		}
	}
	return problems
}

func (v *StringValue) ToDebugString(pretty bool, _ language.Tag) string {
	if pretty {
		return v.value
	}
	return strconv.Quote(v.value)
}

// StringFactory builds StringValue instances.
type StringFactory struct{}

// FromXMLElement reads the first <value> child. A missing child yields an
// empty string.
func (StringFactory) FromXMLElement(settingElement *etree.Element, _ string) (StoredValue, error) {
	if settingElement == nil {
		return NewStringValue(""), nil
	}
	child := settingElement.SelectElement(ValueElement)
	if child == nil {
		return NewStringValue(""), nil
	}
	return NewStringValue(child.Text()), nil
}

// FromJSON reads a JSON string. null yields an empty string.
func (StringFactory) FromJSON(input string) (StoredValue, error) {
	if !gjson.Valid(input) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidJSON, input)
	}
	result := gjson.Parse(input)
	switch result.Type {
	case gjson.String:
		return NewStringValue(result.String()), nil
	case gjson.Null:
		return NewStringValue(""), nil
	default:
		return nil, fmt.Errorf("%w: expected string, got %s", ErrInvalidJSON, result.Type)
	}
}
