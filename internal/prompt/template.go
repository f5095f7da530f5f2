// Package prompt renders instruction templates for the model-calling
// stages. Rendering is pure text substitution with no side effects.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// Template syntax:
//
//	{{name}}                plain placeholder
//	[[#name]] ... [[/name]] conditional block driven by variable "name"
//
// A plain placeholder is replaced everywhere its variable is bound; an
// unbound placeholder is left untouched. A conditional block is replaced
// by its inner text (with the inner {{name}} substituted) when the
// driving variable is bound and non-empty, and removed entirely —
// markers and inner text — otherwise. Stripping the whole block when the
// variable is absent means an empty refinement leaves no injectable
// region in the assembled instruction at all.

var blockRe = regexp.MustCompile(`(?s)\[\[#([a-zA-Z0-9_]+)\]\](.*?)\[\[/([a-zA-Z0-9_]+)\]\]`)

// Render substitutes vars into template. Rendering the same inputs twice
// yields identical output.
func Render(template string, vars map[string]string) string {
	out := blockRe.ReplaceAllStringFunc(template, func(match string) string {
		groups := blockRe.FindStringSubmatch(match)
		name, inner, closing := groups[1], groups[2], groups[3]
		if name != closing {
			// Mismatched markers are not a block; leave them alone.
			return match
		}
		val, ok := vars[name]
		if !ok || val == "" {
			return ""
		}
		return strings.ReplaceAll(inner, placeholder(name), val)
	})

	for name, val := range vars {
		out = strings.ReplaceAll(out, placeholder(name), val)
	}
	return out
}

func placeholder(name string) string {
	return fmt.Sprintf("{{%s}}", name)
}
