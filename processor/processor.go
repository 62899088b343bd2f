/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package processor

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/go-openapi/strfmt"
	"gopkg.in/yaml.v3"

	"github.com/suparena/recordstore/storagemodels"
)

const extension = "x-recordstore"

// Entity is a component schema carrying x-recordstore.
type Entity struct {
	Name       string
	Table      string
	Key        string
	KeyKind    storagemodels.KeyKind
	Unique     []string
	Fuzzy      []string
	Formats    map[string]string
	SoftDelete string
}

// FilterDTO is a component schema without x-recordstore whose properties
// declare match modes.
type FilterDTO struct {
	Name     string
	Contains []string
}

// Document is the part of an OpenAPI document the generator uses.
type Document struct {
	Entities []Entity
	Filters  []FilterDTO
}

type openAPI struct {
	Components struct {
		Schemas map[string]schemaDoc `yaml:"schemas"`
	} `yaml:"components"`
}

type schemaDoc struct {
	Type       string              `yaml:"type"`
	Store      *storeExtension     `yaml:"x-recordstore"`
	Properties map[string]property `yaml:"properties"`
}

type storeExtension struct {
	Name       string   `yaml:"name"`
	Table      string   `yaml:"table"`
	Key        string   `yaml:"key"`
	KeyKind    string   `yaml:"keyKind"`
	Unique     []string `yaml:"unique"`
	SoftDelete string   `yaml:"softDelete"`
}

type property struct {
	Type   string `yaml:"type"`
	Format string `yaml:"format"`
	Fuzzy  bool   `yaml:"x-fuzzy"`
}

// Parse reads the component schemas of an OpenAPI document.
func Parse(data []byte) (*Document, error) {
	var api openAPI
	if err := yaml.Unmarshal(data, &api); err != nil {
		return nil, fmt.Errorf("parse openapi: %w", err)
	}

	names := make([]string, 0, len(api.Components.Schemas))
	for name := range api.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := &Document{}
	for _, name := range names {
		s := api.Components.Schemas[name]
		if s.Store != nil {
			e, err := parseEntity(name, s)
			if err != nil {
				return nil, err
			}
			doc.Entities = append(doc.Entities, e)
			continue
		}
		contains, err := fuzzyColumns(name, s)
		if err != nil {
			return nil, err
		}
		if len(contains) > 0 {
			doc.Filters = append(doc.Filters, FilterDTO{Name: name, Contains: contains})
		}
	}
	return doc, nil
}

func parseEntity(name string, s schemaDoc) (Entity, error) {
	ext := s.Store
	e := Entity{
		Name:  name,
		Table: ext.Table,
		Key:   ext.Key,
	}
	if ext.Name != "" {
		e.Name = ext.Name
	}
	if e.Table == "" {
		e.Table = strings.ToLower(e.Name)
	}
	if e.Key == "" {
		return e, fmt.Errorf("%s: %s.key is required", name, extension)
	}
	if _, ok := s.Properties[e.Key]; !ok {
		return e, fmt.Errorf("%s: key %q is not a property", name, e.Key)
	}

	kind, ok := storagemodels.ParseKeyKind(ext.KeyKind)
	if !ok {
		return e, fmt.Errorf("%s: unknown keyKind %q", name, ext.KeyKind)
	}
	e.KeyKind = kind

	for _, col := range ext.Unique {
		if _, ok := s.Properties[col]; !ok {
			return e, fmt.Errorf("%s: unique column %q is not a property", name, col)
		}
	}
	e.Unique = append([]string(nil), ext.Unique...)
	sort.Strings(e.Unique)

	if col := ext.SoftDelete; col != "" {
		p, ok := s.Properties[col]
		if !ok {
			return e, fmt.Errorf("%s: softDelete column %q is not a property", name, col)
		}
		if p.Type != "integer" && p.Type != "boolean" {
			return e, fmt.Errorf("%s: softDelete column %q requires type integer or boolean, got %q", name, col, p.Type)
		}
		e.SoftDelete = col
	}

	fuzzy, err := fuzzyColumns(name, s)
	if err != nil {
		return e, err
	}
	e.Fuzzy = fuzzy

	for col, p := range s.Properties {
		if p.Type != "string" || p.Format == "" || p.Format == "date" || p.Format == "date-time" {
			continue
		}
		if !strfmt.Default.ContainsName(p.Format) {
			continue
		}
		if e.Formats == nil {
			e.Formats = make(map[string]string)
		}
		e.Formats[col] = p.Format
	}
	return e, nil
}

// fuzzyColumns returns the sorted properties marked x-fuzzy.
func fuzzyColumns(name string, s schemaDoc) ([]string, error) {
	var cols []string
	for col, p := range s.Properties {
		if !p.Fuzzy {
			continue
		}
		if p.Type != "string" {
			return nil, fmt.Errorf("%s: x-fuzzy on %q requires type string, got %q", name, col, p.Type)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

var codeTemplate = template.Must(template.New("registry").Funcs(template.FuncMap{
	"strings":  quoteList,
	"formats":  quoteMap,
	"keyKind":  keyKindIdent,
	"hasItems": func(s []string) bool { return len(s) > 0 },
}).Parse(`// Code generated by schemagen. DO NOT EDIT.

package {{.Package}}

import (
{{- if .Doc.Filters}}
	"github.com/suparena/recordstore/filter"
{{- end}}
{{- if .Doc.Entities}}
	"github.com/suparena/recordstore/registry"
	"github.com/suparena/recordstore/storagemodels"
{{- end}}
)
{{if .Doc.Entities}}
func init() {
{{- range .Doc.Entities}}
	registry.MustRegister[{{.Name}}](storagemodels.Schema{
		Name: {{printf "%q" .Name}},
		Table: {{printf "%q" .Table}},
		Key: {{printf "%q" .Key}},
		KeyKind: storagemodels.{{keyKind .KeyKind}},
{{- if hasItems .Unique}}
		Unique: {{strings .Unique}},
{{- end}}
{{- if hasItems .Fuzzy}}
		Fuzzy: {{strings .Fuzzy}},
{{- end}}
{{- if .Formats}}
		Formats: {{formats .Formats}},
{{- end}}
{{- if .SoftDelete}}
		SoftDelete: {{printf "%q" .SoftDelete}},
{{- end}}
	})
{{- end}}
}
{{end}}
{{- range .Doc.Filters}}
// {{.Name}}Modes is the match-mode table of {{.Name}}.
var {{.Name}}Modes = filter.Modes{
{{- range .Contains}}
	{{printf "%q" .}}: filter.Contains,
{{- end}}
}

// FilterModes returns {{.Name}}Modes.
func ({{.Name}}) FilterModes() filter.Modes { return {{.Name}}Modes }
{{end}}`))

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}

func quoteMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%q: %q", k, m[k])
	}
	return "map[string]string{" + strings.Join(pairs, ", ") + "}"
}

func keyKindIdent(k storagemodels.KeyKind) string {
	switch k {
	case storagemodels.KeyUUID:
		return "KeyUUID"
	case storagemodels.KeyString:
		return "KeyString"
	default:
		return "KeySerial"
	}
}

// Generate renders doc as gofmt-formatted Go source in package pkg.
func Generate(doc *Document, pkg string) ([]byte, error) {
	var buf bytes.Buffer
	err := codeTemplate.Execute(&buf, struct {
		Package string
		Doc     *Document
	}{Package: pkg, Doc: doc})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return src, nil
}

// Run reads the OpenAPI document at in and writes the generated code to out.
func Run(in, out, pkg string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	if len(doc.Entities) == 0 && len(doc.Filters) == 0 {
		return fmt.Errorf("%s: no schemas with %s or x-fuzzy properties", in, extension)
	}

	src, err := Generate(doc, pkg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}
