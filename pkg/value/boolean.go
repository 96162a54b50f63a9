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
	"strings"

	"github.com/beevik/etree"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BooleanValue holds an on/off setting.
type BooleanValue struct {
	value bool
}

// NewBooleanValue returns a BooleanValue holding b.
func NewBooleanValue(b bool) *BooleanValue {
	return &BooleanValue{value: b}
}

// Bool returns the held flag.
func (v *BooleanValue) Bool() bool {
	return v.value
}

func (v *BooleanValue) ToXMLValues(valueElementName string) []*etree.Element {
	el := etree.NewElement(valueElementName)
	el.SetText(strconv.FormatBool(v.value))
	return []*etree.Element{el}
}

func (v *BooleanValue) ToNativeObject() any {
	return v.value
}

func (v *BooleanValue) Validate(*setting.Setting) []string {
	return []string{}
}

func (v *BooleanValue) ToDebugString(pretty bool, locale language.Tag) string {
	if !pretty {
		return strconv.FormatBool(v.value)
	}
	p := message.NewPrinter(locale)
	if v.value {
		return p.Sprintf("True")
	}
	return p.Sprintf("False")
}

// BooleanFactory builds BooleanValue instances.
type BooleanFactory struct{}

// FromXMLElement parses the first <value> child. A missing or empty child
// yields false.
func (BooleanFactory) FromXMLElement(settingElement *etree.Element, key string) (StoredValue, error) {
	if settingElement == nil {
		return NewBooleanValue(false), nil
	}
	child := settingElement.SelectElement(ValueElement)
	if child == nil {
		return NewBooleanValue(false), nil
	}
	text := strings.TrimSpace(child.Text())
	if text == "" {
		return NewBooleanValue(false), nil
	}
	b, err := strconv.ParseBool(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %q is not a boolean", ErrInvalidValue, key, text)
	}
	return NewBooleanValue(b), nil
}

// FromJSON reads a JSON boolean.
func (BooleanFactory) FromJSON(input string) (StoredValue, error) {
	if !gjson.Valid(input) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidJSON, input)
	}
	result := gjson.Parse(input)
	switch result.Type {
	case gjson.True, gjson.False:
		return NewBooleanValue(result.Bool()), nil
	default:
		return nil, fmt.Errorf("%w: expected boolean, got %s", ErrInvalidJSON, result.Type)
	}
}
