package skeleton

import (
	"errors"
	"fmt"
)

// Validate reports structural problems that keep a definition from being a
// proper tree: unknown joints, multiple parents, zero or several roots,
// cycles and dangling anchors. A nil result means the graph is a tree.
//
// Resolve accepts invalid definitions anyway; callers decide whether a
// validation failure is fatal.
func Validate(def *Definition) error {
	var issues []error
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Errorf(format, args...))
	}

	parents := make(map[string]string)
	for _, limb := range def.Limbs {
		if _, ok := def.Path[limb.From]; !ok {
			add("limb %s->%s: unknown joint %q", limb.From, limb.To, limb.From)
		}
		if _, ok := def.Path[limb.To]; !ok {
			add("limb %s->%s: unknown joint %q", limb.From, limb.To, limb.To)
		}
		if limb.From == limb.To {
			add("limb %s->%s links a joint to itself", limb.From, limb.To)
		}
		if prev, ok := parents[limb.To]; ok && prev != limb.From {
			add("joint %q has two parents (%q, %q)", limb.To, prev, limb.From)
		}
		parents[limb.To] = limb.From
	}

	roots := make(map[string]bool)
	var rootOrder []string
	for _, limb := range def.Limbs {
		if _, hasParent := parents[limb.From]; !hasParent && !roots[limb.From] {
			roots[limb.From] = true
			rootOrder = append(rootOrder, limb.From)
		}
	}
	switch {
	case len(def.Limbs) > 0 && len(rootOrder) == 0:
		add("no root joint: every limb origin has a parent")
	case len(rootOrder) > 1:
		add("multiple root joints %v", rootOrder)
	}

	for child := range parents {
		if cycleFrom(child, parents) {
			add("cycle through joint %q", child)
			break
		}
	}

	for name, anchor := range def.Anchors {
		if _, ok := def.Path[anchor.Joint]; !ok {
			add("anchor %q references unknown joint %q", name, anchor.Joint)
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidDefinition, def.Name, errors.Join(issues...))
}

// cycleFrom walks parent links from start and reports whether it loops.
func cycleFrom(start string, parents map[string]string) bool {
	seen := map[string]bool{start: true}
	cur := start
	for {
		next, ok := parents[cur]
		if !ok {
			return false
		}
		if seen[next] {
			return true
		}
		seen[next] = true
		cur = next
	}
}
