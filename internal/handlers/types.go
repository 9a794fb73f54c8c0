package handlers

import "net/http"

// credentialCookie is the cookie carrying the client's access key.
const credentialCookie = "key"

// ShortenRequest is the request for creating a short URL. The old access
// key, if the client still holds one, rides along as a cookie and is
// rotated out.
type ShortenRequest struct {
	OldKey string `cookie:"key" doc:"Previously issued access key, rotated on this request"`
	Body   struct {
		URL     string `doc:"The URL to shorten"                example:"https://example.com/very/long/path" json:"url,omitempty"`
		Tier    string `doc:"Service tier: basic or premium"    example:"basic"                              json:"tier,omitempty"`
		OwnerID string `doc:"Owner id scoping the issued key"   example:"OWNER_ID"                           json:"ownerId,omitempty"`
		GuestID string `doc:"Guest id stored in the key's meta" example:"GUEST_ID"                           json:"guestId,omitempty"`
	}
}

// ShortenResponse returns the short URL and the freshly issued access key.
// The key is also set as a path-scoped cookie so the client presents it on
// resolve requests.
type ShortenResponse struct {
	Headers struct {
		SetCookie []http.Cookie `header:"Set-Cookie"`
	}
	Body struct {
		ShortURL string `doc:"The full short URL"     example:"http://localhost:8888/api/a1B2c3D4" json:"shortUrl"`
		Key      string `doc:"The issued access key"  example:"url_3Zf..."                          json:"key"`
	}
}

// ResolveRequest is the request for resolving a short code. The access key
// comes from the client-held cookie.
type ResolveRequest struct {
	Code string `doc:"The short code" example:"a1B2c3D4" path:"code"`
	Key  string `cookie:"key"         doc:"Access key credential"`
}

// ResolveResponse covers the terminal states that need response headers:
// the 301 redirect (caching disabled) and the 403 expired case, which
// clears the credential cookie alongside its message body.
type ResolveResponse struct {
	Status  int
	Headers struct {
		Location     string        `header:"Location"`
		CacheControl string        `header:"Cache-Control"`
		SetCookie    []http.Cookie `header:"Set-Cookie"`
	}
	Body struct {
		Message string `json:"message,omitempty"`
	}
}
