package domain

import "errors"

// Resource names accepted in the "resource" discriminator
const (
	ResourceJobs         = "jobs"
	ResourceApplications = "applications"
	ResourceScreenshots  = "screenshots"
	ResourceSettings     = "settings"

	// DefaultResource is used when a request does not name one
	DefaultResource = ResourceJobs
)

// JobStatusOpen is the status label stored when a new job omits one
const JobStatusOpen = "Открыта"

// Response messages
const (
	MsgJobCreated          = "Job created"
	MsgApplicationCreated  = "Application submitted"
	MsgScreenshotCreated   = "Screenshot added"
	MsgJobsReplaced        = "Jobs updated"
	MsgSettingsUpdated     = "Settings updated"
	MsgJobDeleted          = "Job deleted"
	MsgNotFound            = "Not found"
	MsgInternalServerError = "Internal server error"
)

var (
	// ErrNoConnection is returned when a handler runs without a request-scoped connection
	ErrNoConnection = errors.New("no database connection bound to request")
)

// ResolveResource falls back to DefaultResource only when the request
// did not send the key. A sent but empty value matches no resource.
func ResolveResource(resource string, present bool) string {
	if !present {
		return DefaultResource
	}
	return resource
}
