package graph

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/astrolabe-oss/corelib/internal/types"
)

// MockCall represents a recorded method call on the mock graph client.
type MockCall struct {
	Method    string
	Args      []interface{}
	Timestamp time.Time
}

// MockGraphClient is an in-memory property graph implementing GraphClient.
// It keeps nodes and relationships in creation order, normalizes property
// values the way the Neo4j driver returns them (lists as []any, integers as
// int64), enforces declared uniqueness constraints and records every call.
type MockGraphClient struct {
	mu sync.RWMutex

	connected     bool
	healthStatus  types.HealthStatus
	databaseID    string
	nodes         map[string]*mockNode
	nodeOrder     []string
	relationships []mockRelationship
	constraints   map[string]map[string]bool
	calls         []MockCall
	nextID        int

	// Method name -> error returned instead of performing the call
	errors map[string]error
}

type mockNode struct {
	ID     string
	Labels []string
	Props  map[string]any
}

type mockRelationship struct {
	ID     string
	FromID string
	ToID   string
	Type   string
	Props  map[string]any
}

// NewMockGraphClient creates a new, disconnected mock graph client.
func NewMockGraphClient() *MockGraphClient {
	return &MockGraphClient{
		healthStatus:  types.Healthy("mock graph client"),
		databaseID:    uuid.NewString(),
		nodes:         make(map[string]*mockNode),
		nodeOrder:     make([]string, 0),
		relationships: make([]mockRelationship, 0),
		constraints:   make(map[string]map[string]bool),
		calls:         make([]MockCall, 0),
		errors:        make(map[string]error),
	}
}

// SetMethodError makes every subsequent call to method return err.
// Pass a nil err to clear it.
func (m *MockGraphClient) SetMethodError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, method)
		return
	}
	m.errors[method] = err
}

// SetHealthStatus sets the status Health reports while connected.
func (m *MockGraphClient) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthStatus = status
}

// GetCalls returns a copy of all recorded calls.
func (m *MockGraphClient) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many times method was called.
func (m *MockGraphClient) CallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// GetNodes returns a snapshot of all stored nodes in creation order.
func (m *MockGraphClient) GetNodes() []Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	nodes := make([]Node, 0, len(m.nodeOrder))
	for _, id := range m.nodeOrder {
		nodes = append(nodes, m.nodes[id].snapshot())
	}
	return nodes
}

// GetRelationships returns a snapshot of all stored relationships in creation order.
func (m *MockGraphClient) GetRelationships() []Relationship {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rels := make([]Relationship, 0, len(m.relationships))
	for _, r := range m.relationships {
		rels = append(rels, r.snapshot())
	}
	return rels
}

// IsConnected reports whether Connect has been called without a later Close.
func (m *MockGraphClient) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Reset clears all stored data, recorded calls and injected errors.
func (m *MockGraphClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[string]*mockNode)
	m.nodeOrder = make([]string, 0)
	m.relationships = make([]mockRelationship, 0)
	m.constraints = make(map[string]map[string]bool)
	m.calls = make([]MockCall, 0)
	m.errors = make(map[string]error)
	m.nextID = 0
}

// record appends a call and returns the injected error for method, if any.
// Callers must hold m.mu.
func (m *MockGraphClient) record(method string, args ...interface{}) error {
	m.calls = append(m.calls, MockCall{
		Method:    method,
		Args:      args,
		Timestamp: time.Now(),
	})
	return m.errors[method]
}

// Connect records the call and simulates connection.
func (m *MockGraphClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Connect"); err != nil {
		return err
	}
	m.connected = true
	return nil
}

// Close records the call and simulates disconnection.
func (m *MockGraphClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Close"); err != nil {
		return err
	}
	m.connected = false
	return nil
}

// Health records the call and returns the configured health status.
func (m *MockGraphClient) Health(ctx context.Context) types.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.record("Health")
	if !m.connected {
		return types.Unhealthy("not connected")
	}
	return m.healthStatus
}

// CreateNode records the call and stores a new node.
func (m *MockGraphClient) CreateNode(ctx context.Context, labels []string, props map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("CreateNode", labels, props); err != nil {
		return "", err
	}
	if !m.connected {
		return "", ErrConnectionClosed
	}
	if _, err := buildCreateNode(labels); err != nil {
		return "", err
	}

	stored := normalizeProps(props)
	if err := m.checkConstraints("", labels, stored); err != nil {
		return "", types.WrapError(ErrCodeGraphNodeCreateFailed, "failed to create node", err)
	}

	nodeID := m.newElementID()
	m.nodes[nodeID] = &mockNode{
		ID:     nodeID,
		Labels: append([]string(nil), labels...),
		Props:  stored,
	}
	m.nodeOrder = append(m.nodeOrder, nodeID)
	return nodeID, nil
}

// SetNodeProperties records the call and merges props into the node.
func (m *MockGraphClient) SetNodeProperties(ctx context.Context, nodeID string, props map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("SetNodeProperties", nodeID, props); err != nil {
		return err
	}
	if !m.connected {
		return ErrConnectionClosed
	}

	node, ok := m.nodes[nodeID]
	if !ok {
		return types.WrapError(ErrCodeGraphNodeUpdateFailed,
			fmt.Sprintf("failed to update node %s", nodeID), ErrNodeNotFound)
	}

	merged := make(map[string]any, len(node.Props)+len(props))
	for k, v := range node.Props {
		merged[k] = v
	}
	for k, v := range props {
		n := normalizeValue(v)
		if n == nil {
			delete(merged, k)
			continue
		}
		merged[k] = n
	}

	if err := m.checkConstraints(nodeID, node.Labels, merged); err != nil {
		return types.WrapError(ErrCodeGraphNodeUpdateFailed,
			fmt.Sprintf("failed to update node %s", nodeID), err)
	}
	node.Props = merged
	return nil
}

// DeleteNode records the call and removes the node with its relationships.
func (m *MockGraphClient) DeleteNode(ctx context.Context, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("DeleteNode", nodeID); err != nil {
		return err
	}
	if !m.connected {
		return ErrConnectionClosed
	}
	if _, ok := m.nodes[nodeID]; !ok {
		return types.WrapError(ErrCodeGraphNodeDeleteFailed,
			fmt.Sprintf("failed to delete node %s", nodeID), ErrNodeNotFound)
	}

	delete(m.nodes, nodeID)
	order := m.nodeOrder[:0]
	for _, id := range m.nodeOrder {
		if id != nodeID {
			order = append(order, id)
		}
	}
	m.nodeOrder = order

	rels := m.relationships[:0]
	for _, r := range m.relationships {
		if r.FromID != nodeID && r.ToID != nodeID {
			rels = append(rels, r)
		}
	}
	m.relationships = rels
	return nil
}

// CreateRelationship records the call and stores a directed relationship.
func (m *MockGraphClient) CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("CreateRelationship", fromID, toID, relType, props); err != nil {
		return err
	}
	if !m.connected {
		return ErrConnectionClosed
	}
	if _, err := quoteIdentifier(relType); err != nil {
		return err
	}
	_, fromOK := m.nodes[fromID]
	_, toOK := m.nodes[toID]
	if !fromOK || !toOK {
		return types.WrapError(ErrCodeGraphRelationshipCreateFailed,
			"failed to create relationship", ErrNodeNotFound)
	}

	m.relationships = append(m.relationships, mockRelationship{
		ID:     m.newElementID(),
		FromID: fromID,
		ToID:   toID,
		Type:   relType,
		Props:  normalizeProps(props),
	})
	return nil
}

// FindNodes records the call and returns matching nodes in creation order.
func (m *MockGraphClient) FindNodes(ctx context.Context, label string, match map[string]any) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("FindNodes", label, match); err != nil {
		return nil, err
	}
	if !m.connected {
		return nil, ErrConnectionClosed
	}
	if _, _, err := buildFindNodes(label, match); err != nil {
		return nil, err
	}

	nodes := make([]Node, 0)
	for _, id := range m.nodeOrder {
		node := m.nodes[id]
		if !node.hasLabel(label) || !node.matches(match) {
			continue
		}
		nodes = append(nodes, node.snapshot())
	}
	return nodes, nil
}

// Neighbors records the call and returns connected node ids in relationship creation order.
func (m *MockGraphClient) Neighbors(ctx context.Context, nodeID, relType string, dir Direction, label string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Neighbors", nodeID, relType, dir, label); err != nil {
		return nil, err
	}
	if !m.connected {
		return nil, ErrConnectionClosed
	}

	ids := make([]string, 0)
	for _, r := range m.relationships {
		if r.Type != relType {
			continue
		}
		var other string
		switch {
		case dir == DirectionOutgoing && r.FromID == nodeID:
			other = r.ToID
		case dir == DirectionIncoming && r.ToID == nodeID:
			other = r.FromID
		default:
			continue
		}
		if label != "" && !m.nodes[other].hasLabel(label) {
			continue
		}
		ids = append(ids, other)
	}
	return ids, nil
}

// Edges records the call and returns one record per relationship in creation order.
func (m *MockGraphClient) Edges(ctx context.Context) ([]EdgeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("Edges"); err != nil {
		return nil, err
	}
	if !m.connected {
		return nil, ErrConnectionClosed
	}

	edges := make([]EdgeRecord, 0, len(m.relationships))
	for _, r := range m.relationships {
		edges = append(edges, EdgeRecord{
			Parent: m.nodes[r.FromID].snapshot(),
			Edge:   r.snapshot(),
			Child:  m.nodes[r.ToID].snapshot(),
		})
	}
	return edges, nil
}

// EnsureUniqueConstraint records the call and registers the constraint.
// Like Neo4j, it fails if existing data already violates the constraint.
func (m *MockGraphClient) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("EnsureUniqueConstraint", label, property); err != nil {
		return err
	}
	if !m.connected {
		return ErrConnectionClosed
	}
	if _, err := buildUniqueConstraint(label, property); err != nil {
		return err
	}

	seen := make([]any, 0)
	for _, id := range m.nodeOrder {
		node := m.nodes[id]
		v, ok := node.Props[property]
		if !node.hasLabel(label) || !ok {
			continue
		}
		for _, s := range seen {
			if valuesEqual(s, v) {
				return types.WrapError(ErrCodeGraphConstraintFailed,
					fmt.Sprintf("failed to ensure unique %s.%s", label, property), ErrConstraintViolation)
			}
		}
		seen = append(seen, v)
	}

	if m.constraints[label] == nil {
		m.constraints[label] = make(map[string]bool)
	}
	m.constraints[label][property] = true
	return nil
}

// checkConstraints rejects props that would duplicate a unique property on
// another node sharing one of labels. selfID is skipped. Callers must hold m.mu.
func (m *MockGraphClient) checkConstraints(selfID string, labels []string, props map[string]any) error {
	for _, label := range labels {
		for property := range m.constraints[label] {
			v, ok := props[property]
			if !ok {
				continue
			}
			for _, id := range m.nodeOrder {
				other := m.nodes[id]
				if id == selfID || !other.hasLabel(label) {
					continue
				}
				if existing, ok := other.Props[property]; ok && valuesEqual(existing, v) {
					return types.WrapError(ErrCodeGraphConstraintViolation,
						fmt.Sprintf("node %s already has %s.%s = %v", id, label, property, v), ErrConstraintViolation)
				}
			}
		}
	}
	return nil
}

// newElementID mimics Neo4j 5 element ids: "<version>:<database id>:<counter>".
func (m *MockGraphClient) newElementID() string {
	id := fmt.Sprintf("4:%s:%d", m.databaseID, m.nextID)
	m.nextID++
	return id
}

func (n *mockNode) hasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (n *mockNode) matches(match map[string]any) bool {
	for k, want := range match {
		got, ok := n.Props[k]
		if want == nil {
			if ok {
				return false
			}
			continue
		}
		if !ok || !valuesEqual(got, normalizeValue(want)) {
			return false
		}
	}
	return true
}

func (n *mockNode) snapshot() Node {
	return Node{
		ID:     n.ID,
		Labels: append([]string(nil), n.Labels...),
		Props:  copyProps(n.Props),
	}
}

func (r mockRelationship) snapshot() Relationship {
	return Relationship{
		ID:      r.ID,
		StartID: r.FromID,
		EndID:   r.ToID,
		Type:    r.Type,
		Props:   copyProps(r.Props),
	}
}

func normalizeProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if n := normalizeValue(v); n != nil {
			out[k] = n
		}
	}
	return out
}

// normalizeValue converts v to the representation the Neo4j driver returns.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return *val
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if list, ok := v.([]any); ok {
			dup := make([]any, len(list))
			copy(dup, list)
			v = dup
		}
		out[k] = v
	}
	return out
}
