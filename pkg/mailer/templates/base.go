package templates

import (
	"bytes"
	"fmt"
	"html/template"
	textTemplate "text/template"
)

// TypedTemplate pairs an HTML body with an optional plaintext alternative.
// The text variant goes through text/template so it is not HTML-escaped.
type TypedTemplate[T any] struct {
	Name         string
	HTMLTemplate *template.Template
	TextTemplate *textTemplate.Template
}

func (t *TypedTemplate[T]) GetName() string {
	return t.Name
}

func (t *TypedTemplate[T]) Render(context T) (html string, text string, err error) {
	var htmlBuf bytes.Buffer
	if err := t.HTMLTemplate.Execute(&htmlBuf, context); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", t.Name, err)
	}

	var textBuf bytes.Buffer
	if t.TextTemplate != nil {
		if err := t.TextTemplate.Execute(&textBuf, context); err != nil {
			return "", "", fmt.Errorf("render %s text: %w", t.Name, err)
		}
	}

	return htmlBuf.String(), textBuf.String(), nil
}

func NewTemplate[T any](name string, htmlTmpl string, textTmpl string) (*TypedTemplate[T], error) {
	htmlParsed, err := template.New(name + "_html").Parse(htmlTmpl)
	if err != nil {
		return nil, err
	}

	var textParsed *textTemplate.Template
	if textTmpl != "" {
		textParsed, err = textTemplate.New(name + "_text").Parse(textTmpl)
		if err != nil {
			return nil, err
		}
	}

	return &TypedTemplate[T]{
		Name:         name,
		HTMLTemplate: htmlParsed,
		TextTemplate: textParsed,
	}, nil
}

func MustTemplate[T any](name string, htmlTmpl string, textTmpl string) *TypedTemplate[T] {
	t, err := NewTemplate[T](name, htmlTmpl, textTmpl)
	if err != nil {
		panic(err)
	}
	return t
}
