package mapping

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/depchase/depchase/pkg/source"
)

// Table maps coordinate keys to repositories. Keys are either
// "group:artifact", an exact group, or a group prefix; all lowercase.
type Table map[string]source.Repo

// builtinTable returns the compiled-in defaults for widely used
// libraries whose repository cannot be derived from the coordinate.
func builtinTable() Table {
	return Table{
		"cn.hutool":             {Owner: "hutool", Name: "hutool"},
		"org.springframework":   {Owner: "spring-projects", Name: "spring-framework"},
		"org.apache.commons":    {Owner: "apache", Name: "commons-lang"},
		"com.fasterxml.jackson": {Owner: "FasterXML", Name: "jackson-core"},
		"org.mybatis":           {Owner: "mybatis", Name: "mybatis-3"},
		"com.baomidou":          {Owner: "baomidou", Name: "mybatis-plus"},
		"org.slf4j":             {Owner: "qos-ch", Name: "slf4j"},
		"ch.qos.logback":        {Owner: "qos-ch", Name: "logback"},
	}
}

// overrideFile is the TOML shape for user-supplied mapping overrides:
//
//	[mappings]
//	"com.google.guava" = "google/guava"
//	"org.apache.commons:commons-io" = "apache/commons-io"
type overrideFile struct {
	Mappings map[string]string `toml:"mappings"`
}

// LoadOverrides reads a TOML override file into a Table.
func LoadOverrides(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	return ParseOverrides(string(data))
}

// ParseOverrides parses TOML override text into a Table.
func ParseOverrides(text string) (Table, error) {
	var f overrideFile
	if err := toml.Unmarshal([]byte(text), &f); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}

	table := make(Table, len(f.Mappings))
	for key, target := range f.Mappings {
		repo, err := source.ParseRepo(target)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", key, err)
		}
		table[strings.ToLower(strings.TrimSpace(key))] = repo
	}
	return table, nil
}
