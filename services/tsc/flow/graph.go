// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import (
	"fmt"
	"strings"
)

// IsReachable reports whether some path leads from a Start node to n.
// Conditions are taken at face value; no narrowing is evaluated.
func IsReachable(n *Node) bool {
	visited := make(map[*Node]bool)
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if IsUnreachable(cur) || visited[cur] {
			continue
		}
		visited[cur] = true
		switch {
		case cur.Flags&FlagsStart != 0:
			return true
		case cur.Flags&FlagsLabel != 0:
			stack = append(stack, cur.Antecedents...)
		default:
			stack = append(stack, cur.Antecedent)
		}
	}
	return false
}

// Predecessors returns the direct antecedents of n.
func Predecessors(n *Node) []*Node {
	if n == nil {
		return nil
	}
	if n.Flags&FlagsLabel != 0 {
		return n.Antecedents
	}
	if n.Antecedent != nil {
		return []*Node{n.Antecedent}
	}
	return nil
}

// Dump renders the graph reachable backwards from n, one node per line,
// in the form "#id Flags [ast kind] <- #pred, #pred".
func Dump(n *Node) string {
	var b strings.Builder
	visited := make(map[*Node]bool)
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || visited[cur] {
			continue
		}
		visited[cur] = true

		fmt.Fprintf(&b, "#%d %s", cur.ID(), cur.Flags)
		if cur.Node != nil {
			fmt.Fprintf(&b, " [%s]", cur.Node.Kind)
		}
		preds := Predecessors(cur)
		if cur.Reduce != nil {
			fmt.Fprintf(&b, " reduce(#%d)", cur.Reduce.Target.ID())
		}
		if len(preds) > 0 {
			ids := make([]string, 0, len(preds))
			for _, p := range preds {
				ids = append(ids, fmt.Sprintf("#%d", p.ID()))
			}
			b.WriteString(" <- " + strings.Join(ids, ", "))
		}
		b.WriteByte('\n')
		queue = append(queue, preds...)
	}
	return b.String()
}
