package graph

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/23skdu/trellis/internal/errors"
	"github.com/23skdu/trellis/internal/mem"
	"github.com/23skdu/trellis/internal/metrics"
)

// DeletionResult reports what removing a relationship partition freed.
type DeletionResult struct {
	DeletedRelationships int64
	FreedBytes           int64
}

type relPartition struct {
	rels        *Relationships
	propertyKey string
}

type nodePropertyEntry struct {
	values NodeProperties
	state  PropertyState
}

// GraphStore is the catalog owner for one named in-memory graph: node labels,
// relationship-type partitions and node property columns. Views handed out by
// Graph() share the backing pages; the store frees them only once release has
// been requested, permitted, and no view is outstanding.
type GraphStore struct {
	mu               sync.RWMutex
	name             string
	nodeCount        int64
	labels           map[NodeLabel]struct{}
	relationships    map[RelationshipType]*relPartition
	nodeProperties   map[string]*nodePropertyEntry
	modificationTime time.Time

	viewCount        int64
	releaseRequested bool
	releasePermitted bool
	released         bool

	tracker *mem.AllocationTracker
	logger  *zap.Logger
}

// NewGraphStore creates an empty catalog for nodeCount dense node ids.
func NewGraphStore(name string, nodeCount int64, tracker *mem.AllocationTracker, logger *zap.Logger) *GraphStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphStore{
		name:             name,
		nodeCount:        nodeCount,
		labels:           map[NodeLabel]struct{}{AllNodes: {}},
		relationships:    make(map[RelationshipType]*relPartition),
		nodeProperties:   make(map[string]*nodePropertyEntry),
		modificationTime: time.Now(),
		releasePermitted: true,
		tracker:          tracker,
		logger:           logger,
	}
}

// NodeCount returns the size of the dense node id space.
func (s *GraphStore) NodeCount() int64 {
	return s.nodeCount
}

// ModificationTime returns the time of the last catalog mutation.
func (s *GraphStore) ModificationTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modificationTime
}

// RelationshipCount sums the relationships across all partitions.
func (s *GraphStore) RelationshipCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, p := range s.relationships {
		count += p.rels.Count()
	}
	return count
}

// RelationshipTypes lists the catalogued partition types.
func (s *GraphStore) RelationshipTypes() []RelationshipType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]RelationshipType, 0, len(s.relationships))
	for t := range s.relationships {
		types = append(types, t)
	}
	return types
}

// HasRelationshipType reports whether a partition exists for t.
func (s *GraphStore) HasRelationshipType(t RelationshipType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.relationships[t]
	return ok
}

// AddNodeLabel registers a label in the catalog.
func (s *GraphStore) AddNodeLabel(label NodeLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[label] = struct{}{}
	s.modificationTime = time.Now()
}

// NodeLabels lists the catalogued labels.
func (s *GraphStore) NodeLabels() []NodeLabel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := make([]NodeLabel, 0, len(s.labels))
	for l := range s.labels {
		labels = append(labels, l)
	}
	return labels
}

// AddRelationshipType registers a new partition. propertyKey names the weight
// column carried by rels, empty for unweighted partitions.
func (s *GraphStore) AddRelationshipType(t RelationshipType, propertyKey string, rels *Relationships) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.relationships[t]; exists {
		return errors.Newf(errors.ErrorTypeValidation, "add_relationship_type",
			"relationship type %q already exists in graph %q", t, s.name)
	}
	if propertyKey != "" && rels.Properties() == nil {
		return errors.Newf(errors.ErrorTypeValidation, "add_relationship_type",
			"relationship type %q declares property %q but carries no values", t, propertyKey)
	}
	s.relationships[t] = &relPartition{rels: rels, propertyKey: propertyKey}
	s.modificationTime = time.Now()
	metrics.GraphStoreRelationshipPartitions.Inc()
	s.logger.Debug("added relationship type",
		zap.String("graph", s.name),
		zap.String("type", string(t)),
		zap.Int64("relationships", rels.Count()))
	return nil
}

// DeleteRelationships removes a partition and frees its pages.
func (s *GraphStore) DeleteRelationships(t RelationshipType) (DeletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.relationships[t]
	if !ok {
		return DeletionResult{}, errors.Newf(errors.ErrorTypeValidation, "delete_relationships",
			"relationship type %q not found in graph %q", t, s.name)
	}
	delete(s.relationships, t)
	s.modificationTime = time.Now()
	metrics.GraphStoreRelationshipPartitions.Dec()
	result := DeletionResult{
		DeletedRelationships: p.rels.Count(),
		FreedBytes:           p.rels.Release(),
	}
	s.logger.Debug("deleted relationship partition",
		zap.String("graph", s.name),
		zap.String("type", string(t)),
		zap.Int64("freed_bytes", result.FreedBytes))
	return result, nil
}

// AddNodeProperty registers a property column under key.
func (s *GraphStore) AddNodeProperty(key string, state PropertyState, values NodeProperties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodeProperties[key]; exists {
		return errors.Newf(errors.ErrorTypeValidation, "add_node_property",
			"node property %q already exists in graph %q", key, s.name)
	}
	s.nodeProperties[key] = &nodePropertyEntry{values: values, state: state}
	s.modificationTime = time.Now()
	return nil
}

// RemoveNodeProperty drops a property column and frees it.
func (s *GraphStore) RemoveNodeProperty(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.nodeProperties[key]
	if !ok {
		return errors.Newf(errors.ErrorTypeValidation, "remove_node_property",
			"node property %q not found in graph %q", key, s.name)
	}
	delete(s.nodeProperties, key)
	s.modificationTime = time.Now()
	entry.values.Release()
	return nil
}

// NodeProperty returns the column registered under key, or nil.
func (s *GraphStore) NodeProperty(key string) NodeProperties {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.nodeProperties[key]; ok {
		return entry.values
	}
	return nil
}

// NodePropertyState returns the PERSISTENT/TRANSIENT tag of a column.
func (s *GraphStore) NodePropertyState(key string) (PropertyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.nodeProperties[key]
	if !ok {
		return 0, errors.Newf(errors.ErrorTypeValidation, "node_property_state",
			"node property %q not found in graph %q", key, s.name)
	}
	return entry.state, nil
}

// NodePropertyKeys lists registered property keys.
func (s *GraphStore) NodePropertyKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.nodeProperties))
	for k := range s.nodeProperties {
		keys = append(keys, k)
	}
	return keys
}

// Graph yields a filtered read-only view composing the partitions of the
// given relationship types without copying adjacency data. An empty types
// slice selects every partition. weightProperty selects the relationship
// weight column; each chosen partition must carry it.
func (s *GraphStore) Graph(labels []NodeLabel, types []RelationshipType, weightProperty string) (Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, errors.Newf(errors.ErrorTypeValidation, "get_graph",
			"graph %q has been released", s.name)
	}

	for _, l := range labels {
		if _, ok := s.labels[l]; !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation, "get_graph",
				"unknown node label %q in graph %q", l, s.name)
		}
	}

	if len(types) == 0 {
		for t := range s.relationships {
			types = append(types, t)
		}
	}

	view := &graphView{
		store:     s,
		nodeCount: s.nodeCount,
		weighted:  weightProperty != "",
	}
	for _, t := range types {
		p, ok := s.relationships[t]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation, "get_graph",
				"relationship type %q not found in graph %q", t, s.name)
		}
		if weightProperty != "" && p.propertyKey != weightProperty {
			return nil, errors.Newf(errors.ErrorTypeValidation, "get_graph",
				"relationship type %q does not carry weight property %q", t, weightProperty)
		}
		view.partitions = append(view.partitions, p)
		view.relCount += p.rels.Count()
	}

	s.viewCount++
	return view, nil
}

// Union returns a view over every partition.
func (s *GraphStore) Union() (Graph, error) {
	return s.Graph(nil, nil, "")
}

// CanRelease grants or revokes permission to free the backing pages.
func (s *GraphStore) CanRelease(permitted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releasePermitted = permitted
	s.maybeReleaseLocked()
}

// Release requests freeing the backing pages. Pages are freed once no view
// references them and release is permitted.
func (s *GraphStore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseRequested = true
	s.maybeReleaseLocked()
}

func (s *GraphStore) releaseView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewCount--
	s.maybeReleaseLocked()
}

func (s *GraphStore) maybeReleaseLocked() {
	if s.released || !s.releaseRequested || !s.releasePermitted || s.viewCount > 0 {
		return
	}
	s.released = true

	var freed int64
	for t, p := range s.relationships {
		freed += p.rels.Release()
		metrics.GraphStoreRelationshipPartitions.Dec()
		delete(s.relationships, t)
	}
	for k, entry := range s.nodeProperties {
		freed += entry.values.Release()
		delete(s.nodeProperties, k)
	}
	metrics.GraphStoreReleasesTotal.Inc()
	s.logger.Info("released graph store",
		zap.String("graph", s.name),
		zap.Int64("freed_bytes", freed))
}
