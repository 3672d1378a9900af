package marvel

import "fmt"

// CommunicationError reports a transport failure or a non-success HTTP
// status while talking to the API. Status is 0 when the request never
// produced a response (connection error, timeout, malformed body).
type CommunicationError struct {
	Status int
	URL    string
	Err    error
}

func (e *CommunicationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("marvel: request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("marvel: request to %s returned status %d", e.URL, e.Status)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a well-formed API response that matched zero
// resources: an unknown character name, a character with no stories, or
// a story ID that does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("marvel: %s not found", e.Resource)
}
