package router

import (
	"sync"
	"time"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/google/uuid"
)

// store holds the in-memory state behind the stub API. Tanks are kept in
// creation order.
type store struct {
	mu      sync.Mutex
	tanks   map[string]*domain.Tank
	order   []string
	history map[string][]domain.SensorValue
}

func newStore() *store {
	return &store{
		tanks:   map[string]*domain.Tank{},
		history: map[string][]domain.SensorValue{},
	}
}

func (s *store) create(t domain.Tank) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	t.ID = uuid.NewString()
	t.Created = now
	t.Modified = now

	for i := range t.Sensors {
		if t.Sensors[i].ID == "" {
			t.Sensors[i].ID = uuid.NewString()
		}
		if t.Sensors[i].Value != nil {
			s.appendLocked(t.ID, t.Sensors[i].ID, t.Sensors[i].Value, now)
		}
	}

	for i := range t.Actuators {
		if t.Actuators[i].ID == "" {
			t.Actuators[i].ID = uuid.NewString()
		}
		if t.Actuators[i].Value != nil {
			s.appendLocked(t.ID, t.Actuators[i].ID, t.Actuators[i].Value, now)
		}
	}

	s.tanks[t.ID] = &t
	s.order = append(s.order, t.ID)

	return t.ID
}

func (s *store) list() []domain.Tank {
	s.mu.Lock()
	defer s.mu.Unlock()

	tanks := make([]domain.Tank, 0, len(s.order))
	for _, id := range s.order {
		tanks = append(tanks, snapshot(s.tanks[id]))
	}

	return tanks
}

func (s *store) get(id string) (domain.Tank, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tanks[id]
	if !ok {
		return domain.Tank{}, false
	}

	return snapshot(t), true
}

// snapshot copies a stored tank so that it can be read after the lock is
// released while setValue and update keep writing to the stored one.
func snapshot(t *domain.Tank) domain.Tank {
	c := *t

	c.Sensors = make([]domain.Sensor, len(t.Sensors))
	copy(c.Sensors, t.Sensors)

	c.Actuators = make([]domain.Actuator, len(t.Actuators))
	copy(c.Actuators, t.Actuators)

	if t.Meta.Notifications.Messages != nil {
		c.Meta.Notifications.Messages = make([]domain.Message, len(t.Meta.Notifications.Messages))
		copy(c.Meta.Notifications.Messages, t.Meta.Notifications.Messages)
	}

	return c
}

func (s *store) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tanks[id]; !ok {
		return false
	}

	delete(s.tanks, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return true
}

// update applies fn to the stored tank under the lock.
func (s *store) update(id string, fn func(t *domain.Tank)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tanks[id]
	if !ok {
		return false
	}

	fn(t)
	t.Modified = time.Now().UTC()

	return true
}

// setValue records a new value for a sensor or actuator of a tank.
func (s *store) setValue(tankID, id string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tanks[tankID]
	if !ok {
		return false
	}

	now := time.Now().UTC()
	found := false

	for i := range t.Sensors {
		if t.Sensors[i].ID == id {
			t.Sensors[i].Value = value
			t.Sensors[i].Time = &now
			found = true
		}
	}
	for i := range t.Actuators {
		if t.Actuators[i].ID == id {
			t.Actuators[i].Value = value
			t.Actuators[i].Time = &now
			found = true
		}
	}

	if found {
		s.appendLocked(tankID, id, value, now)
	}

	return found
}

func (s *store) values(tankID, id string) []domain.SensorValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.history[tankID+"/"+id]
	out := make([]domain.SensorValue, len(v))
	copy(out, v)

	return out
}

func (s *store) appendLocked(tankID, id string, value any, at time.Time) {
	key := tankID + "/" + id
	s.history[key] = append(s.history[key], domain.SensorValue{Value: value, Time: at})
}
