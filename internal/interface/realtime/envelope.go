// Package realtime is the websocket surface of the game. Every frame is a
// JSON envelope naming an event; replies reuse the request's event name.
package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wikichallenge/wikichallenge-server/internal/domain/shared"
)

// Event names. They are part of the client protocol.
const (
	EventFeaturesEnabled              = "featuresEnabled"
	EventGetStartPage                 = "getStartPage"
	EventGetEndPage                   = "getEndPage"
	EventCreateAccount                = "createAccount"
	EventLogin                        = "login"
	EventSessionLogin                 = "sessionlogin"
	EventSaveUserData                 = "saveUserData"
	EventRegisterGame                 = "registergame"
	EventPathFun                      = "pathFun"
	EventPathDifficulty               = "pathDifficulty"
	EventDailyChallengeFun            = "dailyChallengeFun"
	EventGetDailyChallenge            = "getDailyChallenge"
	EventGetDailyChallengeLeaderboard = "getDailyChallengeLeaderboard"
	EventGetGeneralLeaderboard        = "getGeneralLeaderboard"
)

// Envelope is one frame in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrMalformed marks a payload that could not be decoded.
var ErrMalformed = shared.NewDomainError("realtime", "Decode", shared.ErrInvalidInput, "malformed payload")

// ParseEnvelope decodes a frame. A frame without an event name is malformed.
func ParseEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return env, shared.WrapError(ErrMalformed, err)
	}
	if env.Event == "" {
		return env, ErrMalformed
	}
	return env, nil
}

// encode builds an outbound frame.
func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// decode unmarshals data into v. A missing or null payload leaves v at its
// zero value.
func decode(data json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return shared.WrapError(ErrMalformed, err)
	}
	return nil
}
