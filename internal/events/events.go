package events

import (
	"log"
	"time"
)

type Type string

const (
	VoteCast       Type = "vote_cast"
	VoteRemoved    Type = "vote_removed"
	BookmarkAdded  Type = "bookmark_added"
	BadgeGranted   Type = "badge_granted"
	AnswerAccepted Type = "answer_accepted"
)

// Event is emitted after a transaction commits. Consumers are best-effort:
// a slow or absent consumer never blocks or fails the request that
// produced the event.
type Event struct {
	Type        Type      `json:"type"`
	ActorID     int       `json:"actor_id"`
	RecipientID int       `json:"recipient_id"`
	TargetKind  string    `json:"target_kind,omitempty"`
	TargetID    int       `json:"target_id,omitempty"`
	Badge       string    `json:"badge,omitempty"`
	At          time.Time `json:"at"`
}

// Emitter fans post-commit events into a buffered channel.
type Emitter struct {
	ch chan Event
}

func NewEmitter(size int) *Emitter {
	return &Emitter{ch: make(chan Event, size)}
}

// Publish enqueues the event, dropping it if the buffer is full.
func (e *Emitter) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	select {
	case e.ch <- evt:
	default:
		log.Printf("event buffer full, dropping %s event", evt.Type)
	}
}

func (e *Emitter) Events() <-chan Event {
	return e.ch
}

func (e *Emitter) Close() {
	close(e.ch)
}
