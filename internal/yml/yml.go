/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package yml

import (
	"strings"
)

// Column widths of the hand-formatted feed layout.
const (
	IndentShop     = 2
	IndentSection  = 4
	IndentItem     = 6
	IndentField    = 8
	IndentSubField = 10
)

const newline = "\n"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Clean escapes the five XML special characters so the text can be placed
// inside an element or an attribute value.
//
// Parameters:
// - s string: The raw text.
//
// Returns:
// - string: The escaped text.
func Clean(s string) string {
	return escaper.Replace(s)
}

func pad(indent int) string {
	return strings.Repeat(" ", indent)
}

// Child renders a single `<name>value</name>` line. An empty value renders nothing,
// so optional fields can be appended unconditionally.
//
// Parameters:
// - name string: The element name.
// - value string: The raw (unescaped) element text.
// - indent int: The column the element starts at.
//
// Returns:
// - string: The rendered line, or "" when value is empty.
func Child(name, value string, indent int) string {
	if value == "" {
		return ""
	}
	return pad(indent) + "<" + name + ">" + Clean(value) + "</" + name + ">" + newline
}

// CData renders an element whose text is wrapped in a character-data block.
// The text is not entity-escaped; a literal "]]>" is split over two sections.
func CData(name, value string, indent int) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "]]>", "]]]]><![CDATA[>")
	return pad(indent) + "<" + name + "><![CDATA[" + value + "]]></" + name + ">" + newline
}

// Close renders the closing line of a container element.
func Close(name string, indent int) string {
	return pad(indent) + "</" + name + ">" + newline
}

// Bool renders a feed boolean.
func Bool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Element is an element with attributes, rendered in one of three shapes:
// an opening tag of a container, a self-closing tag, or a tag with text.
type Element struct {
	name   string
	indent int
	attrs  []string
}

// Tag starts an element at the given column.
func Tag(name string, indent int) Element {
	return Element{name: name, indent: indent}
}

// Attr returns a copy of the element with one more attribute. Attributes keep
// the order they were added in.
func (e Element) Attr(key, value string) Element {
	attrs := make([]string, len(e.attrs), len(e.attrs)+1)
	copy(attrs, e.attrs)
	e.attrs = append(attrs, key+`="`+Clean(value)+`"`)
	return e
}

func (e Element) head() string {
	var sb strings.Builder
	sb.WriteString(pad(e.indent))
	sb.WriteString("<")
	sb.WriteString(e.name)
	for _, attr := range e.attrs {
		sb.WriteString(" ")
		sb.WriteString(attr)
	}
	return sb.String()
}

// Open renders `<name attr="v">` on its own line.
func (e Element) Open() string {
	return e.head() + ">" + newline
}

// Empty renders `<name attr="v" />`.
func (e Element) Empty() string {
	return e.head() + " />" + newline
}

// Text renders `<name attr="v">value</name>`. An empty value falls back to the
// self-closing form.
func (e Element) Text(value string) string {
	if value == "" {
		return e.Empty()
	}
	return e.head() + ">" + Clean(value) + "</" + e.name + ">" + newline
}
