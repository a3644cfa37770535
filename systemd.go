package main

import (
	_ "embed"
	"io"
	"os"
	"text/template"
)

//go:embed crabcups.service
var crabcupsServiceEmbed string

type CrabcupsServiceParams struct {
	BinaryPath string
	User       string
	ConfigPath string
}

// SystemdServiceFile writes a unit file that runs this binary's serve command.
func SystemdServiceFile(w io.Writer, params CrabcupsServiceParams) error {
	tmpl, err := template.New("crabcups.service").Parse(crabcupsServiceEmbed)
	if err != nil {
		return err
	}

	if params.BinaryPath == "" {
		path, err := os.Executable()
		if err != nil {
			return err
		}
		params.BinaryPath = path
	}

	return tmpl.Execute(w, params)
}
