// Package statespace is the search tree over path decisions (spec §4.5): a
// shared tree of Decision/Leaf/ModelPath/Replay nodes persisting across
// analyzer iterations, plus the per-iteration State that walks it. Mirrors
// the teacher's tagged-variant-over-shared-fields shape already used for
// internal/typesystem.Type, adapted to a mutable tree instead of an
// immutable substitution target.
package statespace

import "sync"

// Status is a node's verification verdict.
type Status uint8

const (
	Unknown Status = iota
	Confirmed
	Refuted
)

func (s Status) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Refuted:
		return "refuted"
	default:
		return "unknown"
	}
}

// NodeKind tags which SearchTreeNode variant a Node holds (spec §3).
type NodeKind uint8

const (
	KindLeaf NodeKind = iota
	KindDecision
	KindModelPath
	KindReplay
)

// Node is one vertex of the shared search tree. Only the fields relevant to
// its Kind are meaningful; this mirrors the spec's tagged-union
// SearchTreeNode rather than splitting into four Go types, because the tree
// walk (bubbleStatus, fork) needs to mutate a node in place regardless of
// its current variant (Leaf nodes become Decision nodes the first time
// they're forked).
type Node struct {
	mu sync.Mutex

	Kind   NodeKind
	Status Status

	// Decision children; nil until the node is first forked.
	FalseChild *Node
	TrueChild  *Node

	// ModelPath: a confirmed model snapshot, kept for replay-on-demand.
	ConfirmedModel map[string]any

	// Replay: a scripted bit sequence consumed in program order.
	ScriptedBits []bool
	replayPos    int

	// Exhausted is set once every descendant has a terminal status.
	Exhausted bool
}

// NewRoot returns a fresh Leaf(Unknown) root for a brand-new search tree.
func NewRoot() *Node {
	return &Node{Kind: KindLeaf, Status: Unknown}
}

// NewReplayRoot returns a root that deterministically replays bits.
func NewReplayRoot(bits []bool) *Node {
	return &Node{Kind: KindReplay, ScriptedBits: bits}
}

// nextScriptedBit consumes the next bit of a Replay node. Running past the
// end of the script is a logic error in the caller (a replay must follow
// exactly the same decision sequence as the run it was captured from).
func (n *Node) nextScriptedBit() (bool, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.replayPos >= len(n.ScriptedBits) {
		return false, false
	}
	b := n.ScriptedBits[n.replayPos]
	n.replayPos++
	return b, true
}
