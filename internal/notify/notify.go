package notify

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/events"
	"github.com/campusforum/backend/internal/models"
)

// Notifier drains the post-commit event channel and delivers best-effort
// notifications. Badge grants and accepted answers go out as SMS when
// Twilio is configured and the recipient has a phone number; everything
// else is logged.
type Notifier struct {
	db     *gorm.DB
	client *twilio.RestClient
	from   string
}

func New(db *gorm.DB) *Notifier {
	n := &Notifier{db: db, from: os.Getenv("TWILIO_FROM_NUMBER")}
	if os.Getenv("TWILIO_ACCOUNT_SID") != "" && n.from != "" {
		n.client = twilio.NewRestClient()
		log.Println("✅ SMS notifications enabled")
	}
	return n
}

// Run consumes events until the channel closes or ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			n.handle(ctx, evt)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, evt events.Event) {
	switch evt.Type {
	case events.BadgeGranted:
		n.send(evt.RecipientID, fmt.Sprintf("You earned the %q badge!", evt.Badge))
	case events.AnswerAccepted:
		n.send(evt.RecipientID, "Your answer was accepted.")
	default:
		log.Printf("event %s: actor=%d target=%s/%d", evt.Type, evt.ActorID, evt.TargetKind, evt.TargetID)
	}
}

func (n *Notifier) send(userID int, body string) {
	if userID == 0 {
		return
	}
	if n.client == nil {
		log.Printf("notify user %d: %s", userID, body)
		return
	}

	var user models.User
	if err := n.db.First(&user, userID).Error; err != nil || user.PhoneNumber == "" {
		log.Printf("notify user %d: %s (no phone on file)", userID, body)
		return
	}

	params := &api.CreateMessageParams{}
	params.SetTo(user.PhoneNumber)
	params.SetFrom(n.from)
	params.SetBody(body)
	if _, err := n.client.Api.CreateMessage(params); err != nil {
		log.Printf("failed to send SMS to user %d: %v", userID, err)
	}
}
