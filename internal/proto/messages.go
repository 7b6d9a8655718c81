package proto

import "time"

type ChallengeRequest struct {
	// AccountID is a CAIP-10 account: eip155:<chain id>:<0x address>.
	AccountID string `json:"account_id"`
}

type ChallengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	Message     string    `json:"message"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthenticateRequest struct {
	ChallengeID string `json:"challenge_id"`
	// Signature is the 0x-prefixed personal_sign signature of the challenge message.
	Signature string `json:"signature"`
}

type AuthenticateResponse struct {
	DID          string `json:"did"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RevokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RevokeResponse struct{}

type GetRecordRequest struct {
	Schema string `json:"schema"`
}

// Record is a record as seen on the wire. Exists is false when the
// controller never wrote to the stream; Content is nil in that case.
type Record struct {
	StreamID string         `json:"stream_id"`
	Exists   bool           `json:"exists"`
	Content  Document `json:"content,omitempty"`
	Version  int64          `json:"version"`
}

type GetRecordResponse struct {
	Record Record `json:"record"`
}

type MergeRecordRequest struct {
	Schema string         `json:"schema"`
	Patch  Document `json:"patch"`
}

type MergeRecordResponse struct {
	Record Record `json:"record"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
