package onesignal

// createRequest is the body of POST /notifications.
type createRequest struct {
	AppID            string            `json:"app_id"`
	IncludedSegments []string          `json:"included_segments"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	SendAfter        string            `json:"send_after,omitempty"`
}

// createResponse is the reply to POST /notifications. The API answers 200
// with an empty id and a populated errors field when nobody is subscribed.
type createResponse struct {
	ID         string `json:"id"`
	Recipients int    `json:"recipients,omitempty"`
	Errors     any    `json:"errors,omitempty"`
}
