// Package definition reads and writes the task and privilege definition
// file and watches it for edits.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/chorechart/internal/model"
)

// DefaultPoints is used when a task omits its point value.
const DefaultPoints = 1

// File is the parsed and normalized definition set.
type File struct {
	Tasks      []model.TaskDefinition      `yaml:"tasks"`
	Privileges []model.PrivilegeDefinition `yaml:"privileges"`
}

type taskDoc struct {
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Frequency   string   `yaml:"frequency"`
	Assignees   []string `yaml:"assignees"`
	Points      *int     `yaml:"points"`
	Icon        string   `yaml:"icon"`
}

type document struct {
	Tasks      []taskDoc                   `yaml:"tasks"`
	Chores     []taskDoc                   `yaml:"chores"`
	Privileges []model.PrivilegeDefinition `yaml:"privileges"`
}

// Parse decodes and validates a definition document. The legacy top-level
// key "chores" is read as "tasks".
func Parse(data []byte) (*File, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", model.ErrInvalidDefinition, err)
	}

	f := &File{}
	for _, td := range append(doc.Tasks, doc.Chores...) {
		t := model.TaskDefinition{
			Slug:        td.Slug,
			Name:        td.Name,
			Description: td.Description,
			Frequency:   model.Frequency(td.Frequency),
			Assignees:   td.Assignees,
			Points:      DefaultPoints,
			Icon:        td.Icon,
		}
		if td.Points != nil {
			t.Points = *td.Points
		}
		f.Tasks = append(f.Tasks, t)
	}
	f.Privileges = doc.Privileges

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate normalizes every definition in place and checks that slugs are
// unique per kind and that privilege links resolve.
func (f *File) Validate() error {
	tasks := make(map[string]struct{}, len(f.Tasks))
	for i := range f.Tasks {
		if err := f.Tasks[i].Normalize(); err != nil {
			return err
		}
		slug := f.Tasks[i].Slug
		if _, dup := tasks[slug]; dup {
			return fmt.Errorf("%w: duplicate task slug %q", model.ErrInvalidDefinition, slug)
		}
		tasks[slug] = struct{}{}
	}

	privileges := make(map[string]struct{}, len(f.Privileges))
	for i := range f.Privileges {
		p := &f.Privileges[i]
		if err := p.Normalize(); err != nil {
			return err
		}
		if _, dup := privileges[p.Slug]; dup {
			return fmt.Errorf("%w: duplicate privilege slug %q", model.ErrInvalidDefinition, p.Slug)
		}
		privileges[p.Slug] = struct{}{}
		for _, l := range p.LinkedTasks {
			if _, ok := tasks[l]; !ok {
				return fmt.Errorf("%w: privilege %q links non-existent task %q", model.ErrInvalidDefinition, p.Slug, l)
			}
		}
	}
	return nil
}

// Equal reports whether two definition sets are identical.
func (f *File) Equal(o *File) bool {
	if f == nil || o == nil {
		return f == o
	}
	return slices.EqualFunc(f.Tasks, o.Tasks, func(a, b model.TaskDefinition) bool {
		return a.Slug == b.Slug && a.Name == b.Name && a.Description == b.Description &&
			a.Frequency == b.Frequency && a.Points == b.Points && a.Icon == b.Icon &&
			slices.Equal(a.Assignees, b.Assignees)
	}) && slices.EqualFunc(f.Privileges, o.Privileges, func(a, b model.PrivilegeDefinition) bool {
		return a.Slug == b.Slug && a.Name == b.Name && a.Icon == b.Icon && a.Behavior == b.Behavior &&
			slices.Equal(a.LinkedTasks, b.LinkedTasks) && slices.Equal(a.Assignees, b.Assignees)
	})
}

// Load reads the definition file at path. A missing file yields an empty
// definition set.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return f, nil
}

// Save writes f to path through a temporary file in the same directory.
func Save(path string, f *File) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode definitions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode definitions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".definitions-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write definitions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace definitions: %w", err)
	}
	return nil
}
