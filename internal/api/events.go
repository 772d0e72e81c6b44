package api

import "encoding/json"

// broadcastEvent is the uniform envelope every dashboard event is wrapped
// in before going out over the Hub.
func broadcastEvent(hub *Hub, kind string, payload any) {
	if hub == nil {
		return
	}
	body, err := json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}{Type: kind, Payload: payload})
	if err != nil {
		return
	}
	hub.Broadcast(body)
}
