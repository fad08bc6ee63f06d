package llm

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary/*.yaml
var vocabularyFS embed.FS

// Vocabulary is a versioned system instruction together with the action tags
// it teaches the model to emit.
type Vocabulary struct {
	Version     string   `yaml:"version"`
	Language    string   `yaml:"language"`
	Actions     []string `yaml:"actions"`
	Instruction string   `yaml:"instruction"`
}

// ErrUnknownVocabulary is returned by LoadVocabulary for a name that is not
// embedded in the binary.
var ErrUnknownVocabulary = errors.New("llm: unknown vocabulary")

// LoadVocabulary parses the embedded vocabulary named name (e.g. "fr-v1").
func LoadVocabulary(name string) (*Vocabulary, error) {
	raw, err := vocabularyFS.ReadFile(path.Join("vocabulary", strings.ToLower(name)+".yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVocabulary, name)
	}
	if err != nil {
		return nil, err
	}
	return ParseVocabulary(raw)
}

// ParseVocabulary decodes and checks a vocabulary document.
func ParseVocabulary(raw []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("llm: parse vocabulary: %w", err)
	}
	switch {
	case strings.TrimSpace(v.Version) == "":
		return nil, errors.New("llm: vocabulary has no version")
	case strings.TrimSpace(v.Instruction) == "":
		return nil, fmt.Errorf("llm: vocabulary %s has no instruction", v.Version)
	case len(v.Actions) == 0:
		return nil, fmt.Errorf("llm: vocabulary %s declares no actions", v.Version)
	}
	return &v, nil
}

// Vocabularies lists the embedded vocabulary names, sorted.
func Vocabularies() []string {
	entries, _ := vocabularyFS.ReadDir("vocabulary")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Declares reports whether tag is one of the vocabulary's actions.
func (v *Vocabulary) Declares(tag string) bool {
	for _, a := range v.Actions {
		if a == tag {
			return true
		}
	}
	return false
}
