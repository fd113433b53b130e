/*
Package config reads YAML or JSON configuration files and decodes them
onto tagged structs.

	file, err := config.FromFile("toolgraph.yaml")
	settings := Defaults()
	err = file.Decode(&settings)

Decode leaves fields the file does not mention untouched, so settings can
be pre-populated from defaults or the environment. Unknown keys are
rejected, which catches misspelled settings.
*/
package config
