// Package template holds the catalog of example contracts.
package template

import (
	"embed"
	"strings"
)

//go:embed data
var dataFS embed.FS

type Template struct {
	Name        string
	Description string
	Code        string
}

var catalog = []struct {
	name        string
	description string
	file        string
}{
	{"Hello World", "Simple greeting contract", "data/hello_world.rs"},
	{"Counter", "Simple counter with increment/decrement", "data/counter.rs"},
}

var templates []Template

func init() {
	templates = make([]Template, 0, len(catalog))
	for _, c := range catalog {
		code, err := dataFS.ReadFile(c.file)
		if err != nil {
			panic(err)
		}
		templates = append(templates, Template{
			Name:        c.name,
			Description: c.description,
			Code:        strings.TrimSuffix(string(code), "\n"),
		})
	}
}

// List returns the templates in catalog order.
// The returned slice is a copy.
func List() []Template {
	return append([]Template(nil), templates...)
}
