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

package exporter

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/model"
)

// Markup kept in offer descriptions. Everything else is stripped to text.
var allowedDescriptionTags = map[string]bool{
	"h3": true,
	"ul": true,
	"li": true,
	"p":  true,
}

// Elements whose content is dropped together with the tags.
var droppedDescriptionTags = map[string]bool{
	"script": true,
	"style":  true,
}

var shortcodePattern = regexp.MustCompile(`\[\[?/?[A-Za-z][\w-]*(?:\s[^\[\]]*)?/?\]\]?`)

// StripShortcodes removes [name attr="x"] and [/name] markers, keeping the text between them.
func StripShortcodes(s string) string {
	return shortcodePattern.ReplaceAllString(s, "")
}

// SanitizeDescription reduces product HTML to the tags the marketplace renders
// (h3, ul, li, p, without attributes), removes shortcodes and decodes entities.
func SanitizeDescription(raw string) string {
	raw = StripShortcodes(raw)
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var sb strings.Builder
	skipDepth := 0
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if droppedDescriptionTags[tag] && tt == html.StartTagToken {
				skipDepth++
				continue
			}
			if skipDepth == 0 && allowedDescriptionTags[tag] {
				sb.WriteString("<" + tag + ">")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if droppedDescriptionTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth == 0 && allowedDescriptionTags[tag] {
				sb.WriteString("</" + tag + ">")
			}
		}
	}
}

// pickDescription selects the description source for an offer according to the mode.
func pickDescription(mode config.DescriptionMode, product, offer *model.Product) string {
	switch mode {
	case config.DescriptionLong:
		return product.Description
	case config.DescriptionShort:
		return product.ShortDescription
	default:
		if strings.TrimSpace(offer.Description) != "" {
			return offer.Description
		}
		return product.Description
	}
}

// PlainText strips every tag from s and decodes entities.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
