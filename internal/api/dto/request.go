package dto

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
)

// ErrUnsupportedSettingValue is returned for object and array setting values
var ErrUnsupportedSettingValue = errors.New("setting value must be a JSON scalar or null")

// ResourceEnvelope carries the discriminator of POST and PUT bodies.
// The raw form keeps an absent key apart from an explicit null.
type ResourceEnvelope struct {
	Resource json.RawMessage `json:"resource"`
}

// Name returns the discriminator and whether the key was sent. Null and
// non-string values come back empty so they match no resource.
func (e ResourceEnvelope) Name() (string, bool) {
	if len(e.Resource) == 0 {
		return "", false
	}

	var name string
	if err := json.Unmarshal(e.Resource, &name); err != nil {
		return "", true
	}
	return name, true
}

// Pointer fields make "required" mean "key present", so empty strings and
// zero ages are stored as sent.

type CreateJobRequest struct {
	Title        *string `json:"title" binding:"required"`
	Requirements *string `json:"requirements" binding:"required"`
	Status       *string `json:"status"`
}

type CreateApplicationRequest struct {
	JobTitle *string `json:"jobTitle" binding:"required"`
	VK       *string `json:"vk" binding:"required"`
	Age      *int    `json:"age" binding:"required"`
}

type CreateScreenshotRequest struct {
	URL *string `json:"url" binding:"required"`
}

// ReplaceJobsRequest is the body of PUT resource=jobs. A missing list
// empties the table.
type ReplaceJobsRequest struct {
	Jobs []ReplaceJobItem `json:"jobs" binding:"dive"`
}

type ReplaceJobItem struct {
	ID           *int64  `json:"id" binding:"required"`
	Title        *string `json:"title" binding:"required"`
	Requirements *string `json:"requirements" binding:"required"`
	Status       *string `json:"status" binding:"required"`
}

type UpdateSettingsRequest struct {
	Settings map[string]SettingValue `json:"settings"`
}

// SettingValue is one entry of the settings map. Null becomes SQL NULL,
// numbers and booleans keep their JSON text.
type SettingValue sql.NullString

func (v *SettingValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrUnsupportedSettingValue
	}

	switch data[0] {
	case 'n':
		*v = SettingValue{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = SettingValue{String: s, Valid: true}
	case '{', '[':
		return ErrUnsupportedSettingValue
	default:
		*v = SettingValue{String: string(data), Valid: true}
	}

	return nil
}
