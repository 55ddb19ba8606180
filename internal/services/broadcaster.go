package services

import "github.com/dare4net/earnest-gaming-backend/internal/models"

// Event names published on match and user channels.
const (
	EventMatchCreated        = "match:created"
	EventMatchInvite         = "match:invite"
	EventMatchJoined         = "match:joined"
	EventMatchDeclined       = "match:declined"
	EventMatchStatus         = "match:status"
	EventMatchScreenshot     = "match:screenshot:submitted"
	EventMatchChat           = "match:chat"
	EventMatchCompleted      = "match:completed"
	EventMatchDisputed       = "match:dispute"
	EventWalletTransaction   = "wallet:transaction"
)

// Broadcaster fans lifecycle events out to the participants' live
// sessions. Delivery is best-effort and ordered per channel; clients
// reconcile through pull queries, never through replay.
type Broadcaster interface {
	// Subscribe grants a user the match channel from the moment they are
	// seated or invited. Not retroactive.
	Subscribe(matchID, userID string)
	Unsubscribe(matchID, userID string)

	// PublishMatch delivers the event with the full match snapshot to
	// every subscriber of the match channel.
	PublishMatch(matchID, event string, match *models.Match)

	// PublishUser delivers an event on a single user's channel.
	PublishUser(userID, event string, payload interface{})
}

// NopBroadcaster drops every event. Used where no live transport is
// wired, e.g. tests.
type NopBroadcaster struct{}

func (NopBroadcaster) Subscribe(matchID, userID string)                        {}
func (NopBroadcaster) Unsubscribe(matchID, userID string)                      {}
func (NopBroadcaster) PublishMatch(matchID, event string, match *models.Match) {}
func (NopBroadcaster) PublishUser(userID, event string, payload interface{})   {}
