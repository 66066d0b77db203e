// Copyright 2024 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metadatatree

import "strings"

// path is a parsed dotted field address: the chain of element names to
// descend, the leaf name to select at the end (ignored when truncated),
// and whether "$" was present asking for the element nodes themselves.
type path struct {
	elements  []string
	leaf      string
	truncated bool
}

// parsePath decodes "dc.title.none", "dc.title.none:lang",
// "dc.*", and "dc.subject.$" forms.
func parsePath(raw string) path {
	segs := strings.Split(raw, ".")

	last := segs[len(segs)-1]
	if last == truncate {
		return path{elements: segs[:len(segs)-1], truncated: true}
	}

	leaf := defaultLeafName
	if idx := strings.IndexByte(last, ':'); idx >= 0 {
		leaf = last[idx+1:]
		segs[len(segs)-1] = last[:idx]
	}
	return path{elements: segs, leaf: leaf}
}

// resolveElements walks root through p's element segments, fanning out
// across repeated occurrences and wildcard matches at each level.
func resolveElements(root *Node, segs []string) []*Node {
	frontier := []*Node{root}
	for _, seg := range segs {
		var next []*Node
		for _, n := range frontier {
			next = append(next, n.childElements(seg)...)
		}
		frontier = next
		if len(frontier) == 0 {
			return nil
		}
	}
	return frontier
}

// resolveLeaves returns the leaf Field nodes addressed by p under root.
// For a truncated path it returns the matched Element nodes instead.
func resolveLeaves(root *Node, p path) []*Node {
	if p.truncated {
		return resolveElements(root, p.elements)
	}
	containers := resolveElements(root, p.elements)
	var out []*Node
	for _, c := range containers {
		out = append(out, c.childFields(p.leaf)...)
	}
	return out
}

// ensureElements walks/creates root's element chain for p's element
// segments, always taking the first matching (or newly created) child
// at each level so mutation is deterministic even when several
// occurrences of the same element name already exist.
func ensureElements(root *Node, segs []string) *Node {
	cur := root
	for _, seg := range segs {
		if seg == wildcard {
			// A wildcard cannot be materialized; fall back to a
			// literal child named "*" rather than guessing.
			cur = cur.firstChildElement(seg)
			continue
		}
		cur = cur.firstChildElement(seg)
	}
	return cur
}
