package analytics

import "time"

// Topics for the analytics event stream.
const (
	TopicLinkCreated  = "link.created"
	TopicLinkResolved = "link.resolved"
)

// LinkCreatedEvent is emitted when a URL is shortened.
type LinkCreatedEvent struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	Tier        string    `json:"tier"`
	OwnerID     string    `json:"ownerId"`
	GuestID     string    `json:"guestId"`
	ClientIP    string    `json:"clientIp"`
	UserAgent   string    `json:"userAgent"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LinkResolvedEvent is emitted when a short code is successfully resolved.
type LinkResolvedEvent struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	ResolvedAt time.Time `json:"resolvedAt"`
}
