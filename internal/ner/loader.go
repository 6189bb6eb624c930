package ner

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// The bundled gazetteers ship inside the binary; each file is a flat YAML
// list of literal terms and its base name is the entity type.
//
//go:embed gazetteers/*.yml
var bundledFS embed.FS

// LoadBundled parses the embedded gazetteer files.
func LoadBundled() (map[EntityType][]string, error) {
	entries, err := bundledFS.ReadDir("gazetteers")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigUnreadableDir, "bundled gazetteers unreadable")
	}

	out := make(map[EntityType][]string, len(entries))
	for _, entry := range entries {
		data, err := bundledFS.ReadFile("gazetteers/" + entry.Name())
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigBadGazetteer, entry.Name())
		}
		entityType, terms, err := parseGazetteer(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		out[entityType] = terms
	}
	return out, nil
}

// LoadGazetteerDir loads every *.yml and *.yaml file in dir, in sorted file
// order.  Each file's base name becomes its entity type.  An unreadable
// directory or a malformed file aborts the whole load.
func LoadGazetteerDir(dir string) (map[EntityType][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigUnreadableDir,
			fmt.Sprintf("gazetteer directory %q", dir))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yml" || ext == ".yaml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	out := make(map[EntityType][]string, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigBadGazetteer, name)
		}
		entityType, terms, err := parseGazetteer(name, data)
		if err != nil {
			return nil, err
		}
		// Several files may share a stem across extensions; merge terms.
		out[entityType] = append(out[entityType], terms...)
	}
	return out, nil
}

// parseGazetteer decodes one YAML term list.  The file must be a flat YAML
// sequence; scalar entries are coerced to strings and blank entries dropped.
func parseGazetteer(filename string, data []byte) (EntityType, []string, error) {
	entityType := EntityType(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))

	var raw []interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.ErrCodeConfigBadGazetteer,
			fmt.Sprintf("gazetteer %q is not a YAML list", filename))
	}

	terms := make([]string, 0, len(raw))
	for _, item := range raw {
		if item == nil {
			continue
		}
		term := strings.TrimSpace(fmt.Sprintf("%v", item))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return entityType, terms, nil
}
