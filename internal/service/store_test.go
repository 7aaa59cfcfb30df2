package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// fakeStore is an in-memory Store for service tests.  Transactions are
// collapsed to plain calls; the tests exercise decision logic, not
// isolation, which belongs to the MySQL layer.
type fakeStore struct {
	events      map[uint64]*model.Event
	attendances []model.Attendance
	entries     []model.WaitlistEntry
	nextID      uint64
	phaseWrites int
}

func newFakeStore(events ...model.Event) *fakeStore {
	s := &fakeStore{events: make(map[uint64]*model.Event), nextID: 1}
	for i := range events {
		e := events[i]
		s.events[e.ID] = &e
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	e, ok := s.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) GetEventForUpdate(ctx context.Context, eventID uint64) (*model.Event, error) {
	return s.GetEvent(ctx, eventID)
}

func (s *fakeStore) UpdateEventPhase(ctx context.Context, eventID uint64, from, to string) error {
	e, ok := s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	if e.Phase == from {
		e.Phase = to
		s.phaseWrites++
	}
	return nil
}

func (s *fakeStore) CountConfirmed(ctx context.Context, eventID uint64) (int, error) {
	n := 0
	for _, a := range s.attendances {
		if a.EventID == eventID && a.Response == model.ResponseConfirmed {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) GetAttendance(ctx context.Context, eventID, userID uint64) (*model.Attendance, error) {
	for i := range s.attendances {
		if s.attendances[i].EventID == eventID && s.attendances[i].UserID == userID {
			cp := s.attendances[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpsertAttendance(ctx context.Context, eventID, userID uint64, response string) error {
	for i := range s.attendances {
		if s.attendances[i].EventID == eventID && s.attendances[i].UserID == userID {
			s.attendances[i].Response = response
			return nil
		}
	}
	s.attendances = append(s.attendances, model.Attendance{
		ID: s.id(), EventID: eventID, UserID: userID, Response: response,
	})
	return nil
}

func (s *fakeStore) DeleteAttendance(ctx context.Context, eventID, userID uint64) (bool, error) {
	for i := range s.attendances {
		if s.attendances[i].EventID == eventID && s.attendances[i].UserID == userID {
			s.attendances = append(s.attendances[:i], s.attendances[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetWaitlistEntry(ctx context.Context, eventID, userID uint64) (*model.WaitlistEntry, error) {
	for i := range s.entries {
		if s.entries[i].EventID == eventID && s.entries[i].UserID == userID {
			cp := s.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateWaitlistEntry(ctx context.Context, eventID, userID uint64, joinedAt time.Time) (*model.WaitlistEntry, error) {
	entry := model.WaitlistEntry{ID: s.id(), EventID: eventID, UserID: userID, JoinedAt: joinedAt}
	s.entries = append(s.entries, entry)
	return &entry, nil
}

func (s *fakeStore) CountEarlier(ctx context.Context, entry *model.WaitlistEntry) (int, error) {
	n := 0
	for _, other := range s.entries {
		if other.EventID != entry.EventID || other.ID == entry.ID {
			continue
		}
		if other.JoinedAt.Before(entry.JoinedAt) ||
			(other.JoinedAt.Equal(entry.JoinedAt) && other.ID < entry.ID) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) DeleteWaitlistEntry(ctx context.Context, entryID uint64) (bool, error) {
	for i := range s.entries {
		if s.entries[i].ID == entryID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) NextEligible(ctx context.Context, eventID uint64, now time.Time) (*model.WaitlistEntry, error) {
	var best *model.WaitlistEntry
	for i := range s.entries {
		e := &s.entries[i]
		if e.EventID != eventID {
			continue
		}
		if e.HasOffer() && !e.OfferExpired(now) {
			continue
		}
		if best == nil || e.JoinedAt.Before(best.JoinedAt) ||
			(e.JoinedAt.Equal(best.JoinedAt) && e.ID < best.ID) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *fakeStore) SetOffer(ctx context.Context, entryID uint64, offeredAt, expiresAt, now time.Time) (bool, error) {
	for i := range s.entries {
		e := &s.entries[i]
		if e.ID != entryID {
			continue
		}
		if e.HasOffer() && !e.OfferExpired(now) {
			return false, nil
		}
		offered := offeredAt
		expires := expiresAt
		e.OfferedAt = &offered
		e.OfferExpiresAt = &expires
		return true, nil
	}
	return false, nil
}

func (s *fakeStore) id() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// fakeNotifier records offer and vacancy notifications.
type fakeNotifier struct {
	offers    []OfferNotice
	vacancies []uint64
}

func (f *fakeNotifier) OfferExtended(ctx context.Context, n OfferNotice) error {
	f.offers = append(f.offers, n)
	return nil
}

func (f *fakeNotifier) SlotVacated(ctx context.Context, eventID, userID uint64) error {
	f.vacancies = append(f.vacancies, eventID)
	return nil
}
