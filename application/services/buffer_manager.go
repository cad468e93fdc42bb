package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"loom-backend/application/operators"
	"loom-backend/domain/config"
	"loom-backend/domain/core/aggregates"
	"loom-backend/domain/core/entities"
	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"
	"loom-backend/pkg/observability"

	"go.uber.org/zap"
)

// BufferManager is the public surface of the content core: it owns the graph,
// the open buffers, and the active-buffer cursor, and is the only component
// that commits operator results. One instance exists per session; every
// consumer holds a reference to it.
//
// Mutations are serialized by an internal lock. The lock is never held across
// an operator body: the parent node is snapshotted at invocation, the body
// runs unlocked (it may suspend at the network boundary), and the result is
// committed under the captured parent regardless of where the buffer's cursor
// has moved in the meantime.
//
// Every buffer and node the manager returns is a copy taken under the lock;
// live entities never escape it.
type BufferManager struct {
	mu             sync.RWMutex
	graph          *aggregates.ContentGraph
	registry       *operators.Registry
	buffers        map[string]*entities.Buffer
	order          []valueobjects.BufferID
	activeBufferID valueobjects.BufferID
	cfg            *config.DomainConfig
	logger         *zap.Logger
	metrics        *observability.Collector
}

// NewBufferManager creates the session's buffer manager
func NewBufferManager(
	graph *aggregates.ContentGraph,
	registry *operators.Registry,
	cfg *config.DomainConfig,
	logger *zap.Logger,
	metrics *observability.Collector,
) *BufferManager {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &BufferManager{
		graph:    graph,
		registry: registry,
		buffers:  make(map[string]*entities.Buffer),
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// ImportText creates a root node from externally fetched text and pushes it
// onto the active buffer, opening a new buffer when none is active. This is
// the single entry point for content entering the graph.
func (m *BufferManager) ImportText(text, title string, source valueobjects.ArchiveSource) (*entities.ContentNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content := valueobjects.NewContentFromText(text)
	meta := entities.NodeMetadata{Title: title, Source: source}

	node, err := m.graph.CreateRoot(content, meta)
	if err != nil {
		return nil, err
	}

	buf := m.activeBufferOrNilLocked()
	if buf == nil {
		name := title
		if name == "" {
			name = m.cfg.DefaultBufferName
		}
		buf = m.openBufferLocked(name)
	}
	buf.Push(node.ID())

	m.metrics.NodesCreated.Inc()
	m.logger.Info("Imported text",
		zap.String("nodeID", node.ID().String()),
		zap.String("bufferID", buf.ID().String()),
		zap.String("sourceType", string(source.Type)),
	)
	return node.Clone(), nil
}

// ApplyOperator runs the operator against the active buffer's active node and
// commits the result as a child. On any failure the graph and the buffer are
// left untouched and the error goes back to the caller; there is no retry.
func (m *BufferManager) ApplyOperator(ctx context.Context, operatorID string, params map[string]interface{}) (*entities.ContentNode, error) {
	snap, err := m.snapshotActive()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := m.registry.ApplyOperator(ctx, operatorID, snap.content, params)
	elapsed := time.Since(started)
	if err != nil {
		m.metrics.ObserveOperator(operatorID, runStatus(err), elapsed)
		m.logApplyFailure("operator", operatorID, err)
		return nil, err
	}
	m.metrics.ObserveOperator(operatorID, "success", elapsed)

	return m.commit(snap, entities.OperatorOperation(operatorID, params), result)
}

// ApplyPipeline runs the pipeline against the active buffer's active node.
// Atomic: one child node per successful run, nothing on failure.
func (m *BufferManager) ApplyPipeline(ctx context.Context, pipelineID string) (*entities.ContentNode, error) {
	snap, err := m.snapshotActive()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := m.registry.ApplyPipeline(ctx, pipelineID, snap.content)
	elapsed := time.Since(started)
	if err != nil {
		m.metrics.ObserveOperator(pipelineID, runStatus(err), elapsed)
		m.logApplyFailure("pipeline", pipelineID, err)
		return nil, err
	}
	m.metrics.ObserveOperator(pipelineID, "success", elapsed)

	return m.commit(snap, entities.PipelineOperation(pipelineID), result)
}

// ForkBuffer clones the source buffer's cursor up to its current position and
// activates the clone. Content is shared: both buffers reference the same
// nodes until one of them pushes a new child.
func (m *BufferManager) ForkBuffer(id valueobjects.BufferID) (*entities.Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.buffers[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("buffer %s", id))
	}

	forked := src.Fork(src.Name() + " (fork)")
	m.addBufferLocked(forked)
	m.activeBufferID = forked.ID()
	forked.Touch()

	m.logger.Info("Forked buffer",
		zap.String("sourceBufferID", id.String()),
		zap.String("bufferID", forked.ID().String()),
	)
	return forked.Clone(), nil
}

// NewBuffer opens an empty buffer and activates it
func (m *BufferManager) NewBuffer(name string) *entities.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		name = m.cfg.DefaultBufferName
	}
	buf := m.openBufferLocked(name)
	return buf.Clone()
}

// CloseBuffer destroys a buffer. Nodes it referenced stay in the graph.
func (m *BufferManager) CloseBuffer(id valueobjects.BufferID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buffers[id.String()]; !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("buffer %s", id))
	}

	m.removeBufferLocked(id)
	if m.activeBufferID.Equals(id) {
		m.activeBufferID = m.mostRecentlyActiveLocked()
	}
	m.metrics.BuffersOpen.Set(float64(len(m.buffers)))
	return nil
}

// PinBuffer marks or unmarks a buffer as exempt from list-management eviction
func (m *BufferManager) PinBuffer(id valueobjects.BufferID, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.buffers[id.String()]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("buffer %s", id))
	}
	buf.SetPinned(pinned)
	return nil
}

// SetActiveBuffer switches the active cursor
func (m *BufferManager) SetActiveBuffer(id valueobjects.BufferID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.buffers[id.String()]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("buffer %s", id))
	}
	m.activeBufferID = id
	buf.Touch()
	return nil
}

// ActiveBufferID returns the active buffer's id; zero when none is open
func (m *BufferManager) ActiveBufferID() valueobjects.BufferID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeBufferID
}

// GetBuffer returns a copy of the buffer for id
func (m *BufferManager) GetBuffer(id valueobjects.BufferID) (*entities.Buffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buf, ok := m.buffers[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("buffer %s", id))
	}
	return buf.Clone(), nil
}

// Buffers returns copies of all open buffers in creation order
func (m *BufferManager) Buffers() []*entities.Buffer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*entities.Buffer, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.buffers[id.String()].Clone())
	}
	return out
}

// Undo moves the active buffer's cursor back by one; no-op at the start.
// Returns the resulting active node.
func (m *BufferManager) Undo() (*entities.ContentNode, error) {
	return m.moveCursor(func(b *entities.Buffer) { b.Undo() })
}

// Redo moves the active buffer's cursor forward by one; no-op at the end.
// Returns the resulting active node.
func (m *BufferManager) Redo() (*entities.ContentNode, error) {
	return m.moveCursor(func(b *entities.Buffer) { b.Redo() })
}

// CanUndo reports whether the active buffer has backward history
func (m *BufferManager) CanUndo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buf := m.activeBufferOrNilLocked()
	return buf != nil && buf.CanUndo()
}

// CanRedo reports whether the active buffer has forward history
func (m *BufferManager) CanRedo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buf := m.activeBufferOrNilLocked()
	return buf != nil && buf.CanRedo()
}

// ActiveNode returns the active buffer's active node
func (m *BufferManager) ActiveNode() (*entities.ContentNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buf := m.activeBufferOrNilLocked()
	if buf == nil {
		return nil, pkgerrors.NewNotFoundError("active buffer")
	}
	id := buf.ActiveNodeID()
	if id.IsZero() {
		return nil, pkgerrors.NewNotFoundError("active node")
	}
	node, err := m.graph.GetNode(id)
	if err != nil {
		return nil, err
	}
	return node.Clone(), nil
}

// NodeHistory returns the lineage of the active buffer's active node, oldest
// first. Drives the UI's operation counters and breadcrumbs.
func (m *BufferManager) NodeHistory() ([]*entities.ContentNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buf := m.activeBufferOrNilLocked()
	if buf == nil {
		return nil, pkgerrors.NewNotFoundError("active buffer")
	}
	id := buf.ActiveNodeID()
	if id.IsZero() {
		return nil, pkgerrors.NewNotFoundError("active node")
	}
	chain, err := m.graph.History(id)
	if err != nil {
		return nil, err
	}
	return cloneNodes(chain), nil
}

// NodeHistoryByID returns the lineage of any node, oldest first
func (m *BufferManager) NodeHistoryByID(id valueobjects.NodeID) ([]*entities.ContentNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain, err := m.graph.History(id)
	if err != nil {
		return nil, err
	}
	return cloneNodes(chain), nil
}

// GetNode returns any node by id
func (m *BufferManager) GetNode(id valueobjects.NodeID) (*entities.ContentNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.graph.GetNode(id)
	if err != nil {
		return nil, err
	}
	return node.Clone(), nil
}

// applySnapshot captures everything an apply needs at invocation time, so the
// commit targets the right parent even if the buffer moves mid-flight.
type applySnapshot struct {
	bufferID valueobjects.BufferID
	parentID valueobjects.NodeID
	content  valueobjects.Content
	title    string
	path     []string
}

func (m *BufferManager) snapshotActive() (applySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buf := m.activeBufferOrNilLocked()
	if buf == nil {
		return applySnapshot{}, pkgerrors.NewNotFoundError("active buffer")
	}
	parentID := buf.ActiveNodeID()
	if parentID.IsZero() {
		return applySnapshot{}, pkgerrors.NewValidationError("active buffer has no content")
	}
	parent, err := m.graph.GetNode(parentID)
	if err != nil {
		return applySnapshot{}, err
	}

	return applySnapshot{
		bufferID: buf.ID(),
		parentID: parentID,
		content:  parent.Content(),
		title:    parent.Title(),
		path:     parent.Source().Path,
	}, nil
}

// commit appends the operator result as a child of the captured parent and
// pushes it onto the invoking buffer's history. The push happens even when
// the buffer has since moved to another node: the result becomes the buffer's
// new active node rather than being silently dropped. If the buffer was
// closed mid-flight the node is still committed to the graph.
func (m *BufferManager) commit(snap applySnapshot, op entities.Operation, result valueobjects.Content) (*entities.ContentNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta := entities.NodeMetadata{
		Title:    snap.title,
		Source:   valueobjects.TransformSource(snap.path),
		AvgScore: averageScore(result),
	}

	node, err := m.graph.CreateChild(snap.parentID, op, result, meta)
	if err != nil {
		return nil, err
	}
	m.metrics.NodesCreated.Inc()

	if buf, ok := m.buffers[snap.bufferID.String()]; ok {
		buf.Push(node.ID())
	}

	m.logger.Info("Committed transform result",
		zap.String("nodeID", node.ID().String()),
		zap.String("parentID", snap.parentID.String()),
		zap.String("bufferID", snap.bufferID.String()),
		zap.String("operation", string(op.Kind)),
	)
	return node.Clone(), nil
}

func (m *BufferManager) moveCursor(move func(*entities.Buffer)) (*entities.ContentNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := m.activeBufferOrNilLocked()
	if buf == nil {
		return nil, pkgerrors.NewNotFoundError("active buffer")
	}
	move(buf)

	id := buf.ActiveNodeID()
	if id.IsZero() {
		return nil, pkgerrors.NewNotFoundError("active node")
	}
	node, err := m.graph.GetNode(id)
	if err != nil {
		return nil, err
	}
	return node.Clone(), nil
}

func cloneNodes(nodes []*entities.ContentNode) []*entities.ContentNode {
	out := make([]*entities.ContentNode, len(nodes))
	for i, node := range nodes {
		out[i] = node.Clone()
	}
	return out
}

func (m *BufferManager) activeBufferOrNilLocked() *entities.Buffer {
	if m.activeBufferID.IsZero() {
		return nil
	}
	return m.buffers[m.activeBufferID.String()]
}

func (m *BufferManager) openBufferLocked(name string) *entities.Buffer {
	buf := entities.NewBuffer(name)
	m.addBufferLocked(buf)
	m.activeBufferID = buf.ID()
	buf.Touch()
	return buf
}

func (m *BufferManager) addBufferLocked(buf *entities.Buffer) {
	m.evictIfNeededLocked()
	m.buffers[buf.ID().String()] = buf
	m.order = append(m.order, buf.ID())
	m.metrics.BuffersOpen.Set(float64(len(m.buffers)))
}

func (m *BufferManager) removeBufferLocked(id valueobjects.BufferID) {
	delete(m.buffers, id.String())
	for i, other := range m.order {
		if other.Equals(id) {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// evictIfNeededLocked enforces the optional open-buffer cap by dropping the
// least-recently-activated unpinned buffer. Pinned buffers and the active
// buffer are exempt; when nothing is evictable the cap is exceeded.
func (m *BufferManager) evictIfNeededLocked() {
	if m.cfg.MaxOpenBuffers <= 0 {
		return
	}

	for len(m.buffers) >= m.cfg.MaxOpenBuffers {
		var victim *entities.Buffer
		for _, buf := range m.buffers {
			if buf.Pinned() || buf.ID().Equals(m.activeBufferID) {
				continue
			}
			if victim == nil || buf.LastActiveAt().Before(victim.LastActiveAt()) {
				victim = buf
			}
		}
		if victim == nil {
			return
		}

		m.removeBufferLocked(victim.ID())
		m.logger.Info("Evicted buffer",
			zap.String("bufferID", victim.ID().String()),
			zap.String("name", victim.Name()),
		)
	}
}

func (m *BufferManager) mostRecentlyActiveLocked() valueobjects.BufferID {
	var best *entities.Buffer
	for _, buf := range m.buffers {
		if best == nil || buf.LastActiveAt().After(best.LastActiveAt()) {
			best = buf
		}
	}
	if best == nil {
		return valueobjects.BufferID{}
	}
	return best.ID()
}

func (m *BufferManager) logApplyFailure(kind, id string, err error) {
	if pkgerrors.IsCancelled(err) {
		m.logger.Info("Transform cancelled",
			zap.String(kind+"ID", id),
		)
		return
	}
	m.logger.Error("Transform failed",
		zap.String(kind+"ID", id),
		zap.Error(err),
	)
}

func runStatus(err error) string {
	if pkgerrors.IsCancelled(err) {
		return "cancelled"
	}
	return "error"
}

// averageScore folds per-item sentence scores into the node-level avgScore
func averageScore(content valueobjects.Content) *float64 {
	var sum float64
	var count int
	for _, item := range content.Items() {
		if v, ok := item.MetadataValue(operators.ScoreMetadataKey); ok {
			if f, ok := v.(float64); ok {
				sum += f
				count++
			}
		}
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}
