package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDefinition = errors.New("invalid definition")

// NormalizeSlug lowercases and trims a slug, then checks that it is
// non-empty and made of letters, digits, hyphens and underscores.
func NormalizeSlug(slug string) (string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return "", fmt.Errorf("%w: slug cannot be empty", ErrInvalidDefinition)
	}
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return "", fmt.Errorf("%w: slug %q must contain only alphanumeric characters, hyphens, and underscores", ErrInvalidDefinition, slug)
	}
	return slug, nil
}

func normalizeAssignees(assignees []string) ([]string, error) {
	seen := make(map[string]struct{}, len(assignees))
	out := make([]string, 0, len(assignees))
	for _, a := range assignees {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one assignee is required", ErrInvalidDefinition)
	}
	return out, nil
}

// Normalize validates the definition in place and fills defaults.
func (t *TaskDefinition) Normalize() error {
	slug, err := NormalizeSlug(t.Slug)
	if err != nil {
		return err
	}
	t.Slug = slug

	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		t.Name = slug
	}

	t.Frequency = Frequency(strings.ToLower(string(t.Frequency)))
	if !t.Frequency.Valid() {
		return fmt.Errorf("%w: task %q has unknown frequency %q", ErrInvalidDefinition, slug, t.Frequency)
	}

	assignees, err := normalizeAssignees(t.Assignees)
	if err != nil {
		return fmt.Errorf("task %q: %w", slug, err)
	}
	t.Assignees = assignees

	if t.Points < 0 {
		return fmt.Errorf("%w: task %q points must be >= 0", ErrInvalidDefinition, slug)
	}
	if t.Icon == "" {
		t.Icon = DefaultTaskIcon
	}
	return nil
}

func (p *PrivilegeDefinition) Normalize() error {
	slug, err := NormalizeSlug(p.Slug)
	if err != nil {
		return err
	}
	p.Slug = slug

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = slug
	}

	if p.Behavior == "" {
		p.Behavior = BehaviorAutomatic
	}
	p.Behavior = Behavior(strings.ToLower(string(p.Behavior)))
	if !p.Behavior.Valid() {
		return fmt.Errorf("%w: privilege %q has unknown behavior %q", ErrInvalidDefinition, slug, p.Behavior)
	}

	assignees, err := normalizeAssignees(p.Assignees)
	if err != nil {
		return fmt.Errorf("privilege %q: %w", slug, err)
	}
	p.Assignees = assignees

	linked := make([]string, 0, len(p.LinkedTasks))
	for _, l := range p.LinkedTasks {
		ls, err := NormalizeSlug(l)
		if err != nil {
			return fmt.Errorf("privilege %q linked task: %w", slug, err)
		}
		linked = append(linked, ls)
	}
	p.LinkedTasks = linked

	if p.Icon == "" {
		p.Icon = DefaultPrivilegeIcon
	}
	return nil
}
