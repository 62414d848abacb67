package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// stubStore is a scripted ports.Store. Reads resolve against seeded entities;
// writes are recorded and optionally fail with an injected error. Write sets
// are opaque, so their effects are asserted through the recorded calls rather
// than through read-back.
type stubStore struct {
	entities map[dynamo.ItemKey]model.Entity

	putErr      error
	transactErr error
	updateErr   error
	deleteErr   error

	puts      []model.Entity
	writeSets []*dynamo.WriteSet
	updates   []dynamo.ItemKey
	deletes   []dynamo.ItemKey
}

func newStubStore() *stubStore {
	return &stubStore{entities: make(map[dynamo.ItemKey]model.Entity)}
}

// seed places entities in the store under their derived keys.
func (s *stubStore) seed(entities ...model.Entity) *stubStore {
	for _, e := range entities {
		key, _, err := dynamo.KeyFor(e)
		if err != nil {
			panic(fmt.Sprintf("seed: %v", err))
		}
		s.entities[key] = e
	}
	return s
}

func (s *stubStore) GetByKey(ctx context.Context, key dynamo.ItemKey) (model.Entity, error) {
	entity, ok := s.entities[key]
	if !ok {
		return nil, errors.NewNotFoundError("item")
	}
	return entity, nil
}

func (s *stubStore) ScanPrefix(ctx context.Context, pk, skPrefix string, page dynamo.PageRequest) (dynamo.PageResult, error) {
	type row struct {
		sortKey string
		entity  model.Entity
	}
	var rows []row
	for key, entity := range s.entities {
		if key.PK != pk || !strings.HasPrefix(key.SK, skPrefix) {
			continue
		}
		rows = append(rows, row{sortKey: key.SK, entity: entity})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].sortKey < rows[j].sortKey })

	result := dynamo.PageResult{}
	for _, r := range rows {
		result.Entities = append(result.Entities, r.entity)
	}
	return result, nil
}

func (s *stubStore) ScanSecondaryIndex(ctx context.Context, gsi1pk, gsi1skPrefix string, page dynamo.PageRequest) (dynamo.PageResult, error) {
	type row struct {
		sortKey string
		entity  model.Entity
	}
	var rows []row
	for _, entity := range s.entities {
		_, idx, err := dynamo.KeyFor(entity)
		if err != nil || idx.GSI1PK == "" {
			continue
		}
		if idx.GSI1PK != gsi1pk || !strings.HasPrefix(idx.GSI1SK, gsi1skPrefix) {
			continue
		}
		rows = append(rows, row{sortKey: idx.GSI1SK, entity: entity})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].sortKey < rows[j].sortKey })

	result := dynamo.PageResult{}
	for _, r := range rows {
		result.Entities = append(result.Entities, r.entity)
	}
	return result, nil
}

func (s *stubStore) PutItem(ctx context.Context, entity model.Entity, opts ...dynamo.PutOption) error {
	s.puts = append(s.puts, entity)
	if s.putErr != nil {
		return s.putErr
	}
	key, _, err := dynamo.KeyFor(entity)
	if err != nil {
		return err
	}
	// The only option any caller passes is the create guard.
	if len(opts) > 0 {
		if _, exists := s.entities[key]; exists {
			return errors.NewConstraintViolationError("item already exists")
		}
	}
	s.entities[key] = entity
	return nil
}

func (s *stubStore) UpdateItem(ctx context.Context, key dynamo.ItemKey, update expression.UpdateBuilder, condition expression.ConditionBuilder) error {
	s.updates = append(s.updates, key)
	return s.updateErr
}

func (s *stubStore) DeleteItem(ctx context.Context, key dynamo.ItemKey) error {
	s.deletes = append(s.deletes, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.entities, key)
	return nil
}

func (s *stubStore) TransactWrite(ctx context.Context, ws *dynamo.WriteSet) error {
	s.writeSets = append(s.writeSets, ws)
	if err := ws.Err(); err != nil {
		return err
	}
	return s.transactErr
}

// stubPublisher records published events.
type stubPublisher struct {
	events []model.DomainEvent
	err    error
}

func (p *stubPublisher) Publish(ctx context.Context, event model.DomainEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *stubPublisher) eventTypes() []string {
	var out []string
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// sequentialIDs returns deterministic identifiers id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestService(store *stubStore) (*Service, *stubPublisher) {
	pub := &stubPublisher{}
	svc := NewService(store, pub, zap.NewNop()).
		WithClock(func() time.Time { return fixedNow }).
		WithIDGenerator(sequentialIDs())
	return svc, pub
}

func activeStudent(id, email string) *model.User {
	return &model.User{
		UserID:         id,
		Email:          email,
		FullName:       "Test Student",
		Role:           model.RoleStudent,
		HashedPassword: "hash",
		IsActive:       true,
	}
}

func activeInstructor(id, email string) *model.User {
	u := activeStudent(id, email)
	u.Role = model.RoleInstructor
	return u
}

func publishedCourse(id, categoryID string, price float64) *model.Course {
	return &model.Course{
		CourseID:     id,
		InstructorID: "instructor-1",
		CategoryID:   categoryID,
		Title:        "Course " + id,
		Price:        price,
		IsPublished:  true,
	}
}
