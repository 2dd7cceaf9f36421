package monitor

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/notnil/canfly"
	"github.com/notnil/canfly/catalog"
	"github.com/notnil/canfly/node"
)

// NodeView is the last status seen from a node.
type NodeView struct {
	Node      uint8     `json:"node"`
	State     string    `json:"state"`
	BoardType uint8     `json:"board_type"`
	Serial    uint32    `json:"serial"`
	Seen      time.Time `json:"seen"`
}

// ParamView is the last value seen on a parameter id.
type ParamView struct {
	ID    uint16    `json:"id"`
	Name  string    `json:"name,omitempty"`
	Type  string    `json:"type"`
	Value string    `json:"value"`
	Seen  time.Time `json:"seen"`
}

// State keeps the latest node statuses and parameter values. It is safe for
// concurrent use.
type State struct {
	cat     *catalog.Catalog
	metrics *Metrics
	now     func() time.Time

	mu     sync.RWMutex
	nodes  map[uint8]NodeView
	params map[uint16]ParamView
}

// NewState returns an empty State. cat names parameters and coerces their
// values to the declared type; metrics mirrors observations into gauges.
// Both may be nil.
func NewState(cat *catalog.Catalog, metrics *Metrics) *State {
	return &State{
		cat:     cat,
		metrics: metrics,
		now:     time.Now,
		nodes:   make(map[uint8]NodeView),
		params:  make(map[uint16]ParamView),
	}
}

// ObserveStatus records s.
func (st *State) ObserveStatus(s canfly.Status) NodeView {
	v := NodeView{
		Node:      s.Node,
		State:     s.State.String(),
		BoardType: s.BoardType,
		Serial:    s.Serial,
		Seen:      st.now(),
	}
	st.mu.Lock()
	st.nodes[s.Node] = v
	st.mu.Unlock()
	if st.metrics != nil {
		st.metrics.nodeState.WithLabelValues(strconv.Itoa(int(s.Node))).Set(float64(s.State))
	}
	return v
}

// ObserveParam records p, coerced to its catalog type when the catalog knows
// the id. Values the catalog type cannot hold are kept as received.
func (st *State) ObserveParam(p node.Param) ParamView {
	value := p.Value
	v := ParamView{ID: p.ID, Type: p.Type.String(), Seen: st.now()}
	if st.cat != nil {
		if e, ok := st.cat.ByID(p.ID); ok {
			v.Name = e.Name
			if kind, ok := e.Type.Kind(); ok && kind != canfly.KindNone {
				if c, err := canfly.Coerce(value, kind); err == nil {
					value = c
				}
			}
		}
	}
	v.Value = value.String()

	st.mu.Lock()
	st.params[p.ID] = v
	st.mu.Unlock()
	if st.metrics != nil {
		if f, err := value.ToFloat32(); err == nil {
			st.metrics.paramValue.WithLabelValues(strconv.Itoa(int(p.ID)), v.Name).Set(float64(f))
		}
	}
	return v
}

// Node returns the last status of one node.
func (st *State) Node(n uint8) (NodeView, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	v, ok := st.nodes[n]
	return v, ok
}

// Nodes returns every known node ordered by node id.
func (st *State) Nodes() []NodeView {
	st.mu.RLock()
	out := make([]NodeView, 0, len(st.nodes))
	for _, v := range st.nodes {
		out = append(out, v)
	}
	st.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}

// Params returns every known parameter ordered by id.
func (st *State) Params() []ParamView {
	st.mu.RLock()
	out := make([]ParamView, 0, len(st.params))
	for _, v := range st.params {
		out = append(out, v)
	}
	st.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Watch observes statuses and params until both channels are closed, logging
// each observation at info level when logger is non-nil.
func (st *State) Watch(statuses <-chan canfly.Status, params <-chan node.Param, logger *slog.Logger) {
	for statuses != nil || params != nil {
		select {
		case s, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			v := st.ObserveStatus(s)
			if logger != nil {
				logger.Info("status", "node", v.Node, "state", v.State, "board", v.BoardType, "serial", v.Serial)
			}
		case p, ok := <-params:
			if !ok {
				params = nil
				continue
			}
			v := st.ObserveParam(p)
			if logger != nil {
				attrs := []any{"id", v.ID, "type", v.Type, "value", v.Value}
				if v.Name != "" {
					attrs = append(attrs, "name", v.Name)
				}
				logger.Info("param", attrs...)
			}
		}
	}
}
