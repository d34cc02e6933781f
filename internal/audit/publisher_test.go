package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type PublisherSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func (s *PublisherSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestEmitStampsAndPersists() {
	publisher := NewPublisher(s.store)

	err := publisher.Emit(s.ctx, Event{
		Actor:    "donor-1",
		Action:   ActionDonationRecorded,
		Decision: "accepted",
	})
	s.Require().NoError(err)

	events, err := publisher.ListByActor(s.ctx, "donor-1")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.False(events[0].Timestamp.IsZero())
}

func (s *PublisherSuite) TestEmitKeepsCallerTimestamp() {
	publisher := NewPublisher(s.store)
	stamp := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(publisher.Emit(s.ctx, Event{Actor: "a", Action: ActionStockOverridden, Timestamp: stamp}))

	events, err := publisher.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(stamp, events[0].Timestamp)
}

func (s *PublisherSuite) TestRelayReceivesEvents() {
	relay := make(chan Event, 1)
	publisher := NewPublisher(s.store).WithRelay(relay)

	s.Require().NoError(publisher.Emit(s.ctx, Event{Actor: "a", Action: ActionRequestApproved}))

	select {
	case event := <-relay:
		s.Equal(ActionRequestApproved, event.Action)
	default:
		s.Fail("expected event on relay")
	}
}

// A full relay must never block or fail the emit; the store copy is the
// source of truth.
func (s *PublisherSuite) TestFullRelayDoesNotBlock() {
	relay := make(chan Event) // unbuffered, nobody reading
	publisher := NewPublisher(s.store).WithRelay(relay)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.NoError(publisher.Emit(s.ctx, Event{Actor: "a", Action: ActionRequestRejected}))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("emit blocked on a full relay")
	}
	s.Equal(1, s.store.Len())
}

func (s *PublisherSuite) TestListRecentReturnsNewestFirst() {
	publisher := NewPublisher(s.store)
	for _, actor := range []string{"a", "b", "c"} {
		s.Require().NoError(publisher.Emit(s.ctx, Event{Actor: actor, Action: ActionDonationRecorded}))
	}

	events, err := publisher.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("c", events[0].Actor)
	s.Equal("b", events[1].Actor)
}
