package mqtt

import (
	"encoding/json"
	"time"
)

// StatusPayload is the JSON body published to the system status topic.
// The broker retains the most recent one, so late subscribers always
// see the current liveness of the service.
type StatusPayload struct {
	Status    string `json:"status"` // online, offline
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"` // graceful_shutdown, unexpected_disconnect
	Timestamp string `json:"timestamp"`
}

// buildStatusPayload marshals a status message for the given state.
// Marshalling a flat struct of strings cannot fail, so the error is
// swallowed here rather than threaded through every connect path.
func buildStatusPayload(status, clientID, reason string) string {
	p := StatusPayload{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return `{"status":"` + status + `"}`
	}
	return string(data)
}

func buildOnlinePayload(clientID string) string {
	return buildStatusPayload("online", clientID, "")
}

func buildOfflinePayload(clientID string) string {
	return buildStatusPayload("offline", clientID, "graceful_shutdown")
}

func buildLWTPayload(clientID string) string {
	return buildStatusPayload("offline", clientID, "unexpected_disconnect")
}
