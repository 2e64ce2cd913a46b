package model

import "fmt"

// RemoteError is a request the score service rejected. Status follows HTTP
// semantics whether the call crossed the network or ran in-process.
type RemoteError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}
