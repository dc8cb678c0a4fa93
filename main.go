// Package main is the entry point for gridwatch.
// It embeds the web templates and static assets and runs the CLI.
package main

import (
	"embed"
	"io/fs"

	"gridwatch/cmd"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

func main() {
	templates, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic(err)
	}
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	cmd.SetAssets(templates, static)
	cmd.Execute()
}
