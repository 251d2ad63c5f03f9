// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"slices"

	"github.com/ik5/sndrender/engine"
)

type node struct {
	typ    engine.NodeType
	active bool
	bypass bool
	params map[engine.NodeParam]float64
	inputs []engine.Node
}

type conn struct {
	dst, src engine.Node
	mix      float64
}

func (e *Engine) newNode(t engine.NodeType) engine.Node {
	n := engine.Node(e.id())
	e.nodes[n] = &node{typ: t, active: true, params: make(map[engine.NodeParam]float64)}
	return n
}

func (e *Engine) link(dst, src engine.Node) engine.Connection {
	e.nodes[dst].inputs = append(e.nodes[dst].inputs, src)
	c := engine.Connection(e.id())
	e.conns[c] = &conn{dst: dst, src: src, mix: 1}
	return c
}

func (e *Engine) node(op string, n engine.Node) (*node, error) {
	nd, ok := e.nodes[n]
	if !ok {
		return nil, invalid(op)
	}
	return nd, nil
}

func (e *Engine) GroupHead(g engine.Group) (engine.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	grp, ok := e.groups[g]
	if !ok {
		return 0, invalid("GroupHead")
	}
	return grp.head, nil
}

// SetGroupParam supports volume on every group, and pitch and pause on
// the pausable SFX group.
func (e *Engine) SetGroupParam(g engine.Group, p engine.Param, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	const op = "SetGroupParam"
	grp, ok := e.groups[g]
	if !ok {
		return invalid(op)
	}

	switch {
	case p == engine.ParamVolume:
		grp.volume = v
		setGain(grp.vol, grp.volume*grp.route)
	case p == engine.ParamPitch && grp.pitch != nil:
		if v <= 0 {
			return engine.Fail(op, engine.CodeInvalidParam, nil)
		}
		grp.pitch.SetRatio(v)
	case p == engine.ParamPaused && grp.ctrl != nil:
		grp.ctrl.Paused = v != 0
	default:
		return engine.Fail(op, engine.CodeUnsupported, engine.ErrUnsupported)
	}
	return nil
}

func (e *Engine) OutputTarget() (engine.Node, error) {
	return e.target, nil
}

// CreateNode creates mixer units. Effect units are not available.
func (e *Engine) CreateNode(t engine.NodeType) (engine.Node, error) {
	if t != engine.NodeMixer {
		return 0, engine.Fail("CreateNode", engine.CodeUnsupported, engine.ErrUnsupported)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newNode(t), nil
}

func (e *Engine) ReleaseNode(n engine.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	nd, err := e.node("ReleaseNode", n)
	if err != nil {
		return err
	}
	if nd.typ != engine.NodeMixer {
		return engine.Fail("ReleaseNode", engine.CodeInvalidParam, nil)
	}

	delete(e.nodes, n)
	for _, other := range e.nodes {
		other.inputs = slices.DeleteFunc(other.inputs, func(in engine.Node) bool { return in == n })
	}
	for id, c := range e.conns {
		if c.dst == n || c.src == n {
			delete(e.conns, id)
		}
	}
	e.reroute()
	return nil
}

func (e *Engine) Connect(dst, src engine.Node) (engine.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.node("Connect", dst); err != nil {
		return 0, err
	}
	if _, err := e.node("Connect", src); err != nil {
		return 0, err
	}
	c := e.link(dst, src)
	e.reroute()
	return c, nil
}

func (e *Engine) Disconnect(dst, src engine.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	nd, err := e.node("Disconnect", dst)
	if err != nil {
		return err
	}
	i := slices.Index(nd.inputs, src)
	if i < 0 {
		return invalid("Disconnect")
	}
	nd.inputs = slices.Delete(nd.inputs, i, i+1)
	for id, c := range e.conns {
		if c.dst == dst && c.src == src {
			delete(e.conns, id)
			break
		}
	}
	e.reroute()
	return nil
}

func (e *Engine) Inputs(n engine.Node) ([]engine.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	nd, err := e.node("Inputs", n)
	if err != nil {
		return nil, err
	}
	return slices.Clone(nd.inputs), nil
}

func (e *Engine) Connection(dst, src engine.Node) (engine.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.connection(dst, src); ok {
		return c, nil
	}
	return 0, invalid("Connection")
}

func (e *Engine) connection(dst, src engine.Node) (engine.Connection, bool) {
	for id, c := range e.conns {
		if c.dst == dst && c.src == src {
			return id, true
		}
	}
	return 0, false
}

func (e *Engine) NodeType(n engine.Node) (engine.NodeType, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	nd, err := e.node("NodeType", n)
	if err != nil {
		return 0, err
	}
	return nd.typ, nil
}

// SetNodeActive deactivating the output target silences everything.
func (e *Engine) SetNodeActive(n engine.Node, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	nd, err := e.node("SetNodeActive", n)
	if err != nil {
		return err
	}
	nd.active = active
	if n == e.target {
		e.active = active
	}
	e.reroute()
	return nil
}

func (e *Engine) SetNodeBypass(n engine.Node, bypass bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	nd, err := e.node("SetNodeBypass", n)
	if err != nil {
		return err
	}
	nd.bypass = bypass
	return nil
}

// SetNodeParam supports NodeGain on the output target and stores anything
// else.
func (e *Engine) SetNodeParam(n engine.Node, p engine.NodeParam, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	nd, err := e.node("SetNodeParam", n)
	if err != nil {
		return err
	}
	nd.params[p] = v
	if n == e.target && p == engine.NodeGain {
		setGain(e.out, v)
	}
	return nil
}

func (e *Engine) SetConnectionMix(c engine.Connection, mix float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cn, ok := e.conns[c]
	if !ok {
		return invalid("SetConnectionMix")
	}
	cn.mix = mix
	e.reroute()
	return nil
}

// reroute derives the pausable group's level from the graph: the sum over
// every path from its head into the SFX head of the product of connection
// mixes. Inactive nodes on a path block it.
func (e *Engine) reroute() {
	pausable := e.groups[engine.GroupPausableSFX]
	sfx := e.groups[engine.GroupSFX]

	pausable.route = e.pathLevel(sfx.head, pausable.head, 0)
	setGain(pausable.vol, pausable.volume*pausable.route)
}

// maxDepth bounds path search in case of cycles.
const maxDepth = 8

func (e *Engine) pathLevel(dst, src engine.Node, depth int) float64 {
	if depth > maxDepth {
		return 0
	}
	nd, ok := e.nodes[dst]
	if !ok {
		return 0
	}

	var level float64
	for _, in := range nd.inputs {
		c, ok := e.connection(dst, in)
		if !ok {
			continue
		}
		mix := e.conns[c].mix
		if in == src {
			level += mix
			continue
		}
		if up, ok := e.nodes[in]; ok && up.active && up.typ == engine.NodeMixer {
			level += mix * e.pathLevel(in, src, depth+1)
		}
	}
	return level
}
