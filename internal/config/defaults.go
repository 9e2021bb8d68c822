package config

import (
	_ "embed"
)

//go:embed bengaluru.yaml
var defaultCatalogYAML []byte

// DefaultCatalog returns the built-in Bengaluru catalog.
func DefaultCatalog() *Catalog {
	cat, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic("config: built-in catalog is invalid: " + err.Error())
	}
	return cat
}
