// Package yaml loads source descriptors from YAML or JSON files.
package yaml

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"os"

	"github.com/fwojciec/langspec"
	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSources []byte

// source mirrors langspec.SourceDescriptor with YAML field names. JSON
// documents decode through the same tags.
type source struct {
	Name             string   `yaml:"name"`
	DisplayName      string   `yaml:"displayName"`
	URL              string   `yaml:"url"`
	GitHub           string   `yaml:"github"`
	Doc              string   `yaml:"doc"`
	DocDisplayName   string   `yaml:"docDisplayName"`
	SourcePolicy     string   `yaml:"sourcePolicy"`
	HeadingSelectors string   `yaml:"headingSelectors"`
	Notes            string   `yaml:"notes"`
	ChapterPattern   string   `yaml:"chapterPattern"`
	Path             string   `yaml:"path"`
	ManifestFile     string   `yaml:"manifestFile"`
	ExcludePaths     []string `yaml:"excludePaths"`
	CanonicalBaseURL string   `yaml:"canonicalBaseUrl"`
	URLSuffix        *string  `yaml:"urlSuffix"`
}

func (s source) descriptor() langspec.SourceDescriptor {
	return langspec.SourceDescriptor{
		Name:             s.Name,
		DisplayName:      s.DisplayName,
		URL:              s.URL,
		GitHub:           s.GitHub,
		Doc:              s.Doc,
		DocDisplayName:   s.DocDisplayName,
		SourcePolicy:     langspec.SourcePolicy(s.SourcePolicy),
		HeadingSelectors: s.HeadingSelectors,
		Notes:            s.Notes,
		ChapterPattern:   s.ChapterPattern,
		Path:             s.Path,
		ManifestFile:     s.ManifestFile,
		ExcludePaths:     s.ExcludePaths,
		CanonicalBaseURL: s.CanonicalBaseURL,
		URLSuffix:        s.URLSuffix,
	}
}

// LoadSources reads and validates the sources file at path.
// Returns EINVALID if the file cannot be read, parsed or validated.
func LoadSources(path string) (*langspec.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, langspec.Errorf(langspec.EINVALID, "failed to read sources file: %s: %v", path, err)
	}
	cfg, err := ParseSources(data)
	if err != nil {
		return nil, langspec.Errorf(langspec.EINVALID, "%s: %s", path, langspec.ErrorMessage(err))
	}
	return cfg, nil
}

// DefaultSources returns the built-in source configuration.
func DefaultSources() (*langspec.Config, error) {
	return ParseSources(defaultSources)
}

// ParseSources decodes a list of source descriptors and builds a Config.
// Unknown fields are rejected.
func ParseSources(data []byte) (*langspec.Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sources []source
	if err := dec.Decode(&sources); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, langspec.Errorf(langspec.EINVALID, "sources file is empty")
		}
		return nil, langspec.Errorf(langspec.EINVALID, "invalid sources file: %v", err)
	}

	descriptors := make([]langspec.SourceDescriptor, len(sources))
	for i, s := range sources {
		descriptors[i] = s.descriptor()
	}
	return langspec.NewConfig(descriptors)
}
