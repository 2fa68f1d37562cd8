package narrative

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed corpus/*.yaml
var embedded embed.FS

// Corpus file names.
const (
	FileFormats     = "formats.yaml"
	FileLevels      = "levels.yaml"
	FileObservances = "observances.yaml"
	FileTimes       = "times.yaml"
	FileClasses     = "classes.yaml"
	FileGeneric     = "generic.yaml"
	FileRemarks     = "remarks.yaml"
	FileFirstNames  = "first_names.yaml"
	FileSurnames    = "surnames.yaml"
)

var files = []string{
	FileFormats, FileLevels, FileObservances, FileTimes, FileClasses,
	FileGeneric, FileRemarks, FileFirstNames, FileSurnames,
}

// ErrNoKey is returned when a keyed lookup finds no entry.
var ErrNoKey = errors.New("corpus key not found")

// Entry is one node of a corpus file. An entry that declares Clone takes
// the content of the referenced entry under its own key.
type Entry struct {
	Key   string   `yaml:"key"`
	Clone string   `yaml:"clone,omitempty"`
	Text  string   `yaml:"text,omitempty"`
	Texts []string `yaml:"texts,omitempty"`
}

// Values returns every text the entry carries.
func (e Entry) Values() []string {
	var out []string
	if e.Text != "" {
		out = append(out, e.Text)
	}
	return append(out, e.Texts...)
}

type document struct {
	Entries []Entry `yaml:"entries"`
}

// Corpus holds resolved entries per file.
type Corpus struct {
	files map[string][]Entry
}

// LoadEmbedded loads the corpus shipped with the binary.
//
// Postcondition: Returns a fully resolved Corpus or a non-nil error.
func LoadEmbedded() (*Corpus, error) {
	sub, err := fs.Sub(embedded, "corpus")
	if err != nil {
		return nil, fmt.Errorf("opening embedded corpus: %w", err)
	}
	return Load(sub)
}

// LoadWithOverride loads the embedded corpus, replacing any file that
// also exists in dir.
func LoadWithOverride(dir string) (*Corpus, error) {
	c, err := LoadEmbedded()
	if err != nil || dir == "" {
		return c, err
	}
	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		entries, err := parse(name, data)
		if err != nil {
			return nil, err
		}
		c.files[name] = entries
	}
	return c, nil
}

// Load reads every corpus file from fsys.
//
// Precondition: fsys must contain every corpus file at its root.
// Postcondition: Every clone reference is resolved.
func Load(fsys fs.FS) (*Corpus, error) {
	c := &Corpus{files: make(map[string][]Entry, len(files))}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading corpus %s: %w", name, err)
		}
		entries, err := parse(name, data)
		if err != nil {
			return nil, err
		}
		c.files[name] = entries
	}
	return c, nil
}

func parse(name string, data []byte) ([]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing corpus %s: %w", name, err)
	}
	entries, err := resolveClones(doc.Entries)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", name, err)
	}
	return entries, nil
}

// resolveClones replaces each cloning entry with a copy of its target
// relabeled under the cloning key. Targets are looked up among the
// entries as written, so clones of clones are rejected.
func resolveClones(entries []Entry) ([]Entry, error) {
	byKey := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Clone == "" {
			out[i] = e
			continue
		}
		target, ok := byKey[e.Clone]
		if !ok || target.Clone != "" {
			return nil, fmt.Errorf("entry %q clones unresolvable %q", e.Key, e.Clone)
		}
		cp := Entry{Key: e.Key, Text: target.Text}
		cp.Texts = append([]string(nil), target.Texts...)
		out[i] = cp
	}
	return out, nil
}

// Entries returns the resolved entries of one file.
func (c *Corpus) Entries(file string) []Entry {
	return c.files[file]
}

// Flat returns every text in a file, in entry order.
func (c *Corpus) Flat(file string) []string {
	var out []string
	for _, e := range c.files[file] {
		out = append(out, e.Values()...)
	}
	return out
}

// Keyed returns the texts of the entry with the given key.
//
// Postcondition: Returns ErrNoKey when no entry matches or it is empty.
func (c *Corpus) Keyed(file, key string) ([]string, error) {
	for _, e := range c.files[file] {
		if e.Key == key {
			if v := e.Values(); len(v) > 0 {
				return v, nil
			}
			break
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNoKey, key, file)
}
