// Package models holds the gorm-persisted tables the Session Manager core
// reads and writes through its AuthenticationRepository and DeviceManager
// collaborator interfaces.
package models

import (
	"encoding/json"
	"time"
)

// AuthenticationToken is one row of the access-token table, backing
// internal/sessions.AuthenticationRepository.
type AuthenticationToken struct {
	ID               uint32    `gorm:"primaryKey" json:"id"`
	AccessToken      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"access_token"`
	DeviceId         string    `gorm:"type:varchar(128);not null;index" json:"device_id"`
	UserId           string    `gorm:"type:varchar(36);index" json:"user_id"`
	IsActive         bool      `gorm:"not null;default:true;index" json:"is_active"`
	DateCreated      time.Time `json:"date_created"`
	DateLastActivity time.Time `json:"date_last_activity"`
}

// DeviceCapabilities is the persisted capability snapshot for a device,
// backing internal/sessions.DeviceManager. Capabilities is stored as a JSON
// text column rather than normalized, following the teacher's
// core/session/tracker.go convention for opaque client-declared blobs.
type DeviceCapabilities struct {
	DeviceId         string    `gorm:"type:varchar(128);primaryKey" json:"device_id"`
	Name             string    `json:"name"`
	IconUrl          string    `json:"icon_url"`
	CapabilitiesJSON string    `gorm:"type:text" json:"-"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// capabilitiesPayload mirrors internal/sessions.Capabilities without
// importing that package, keeping models free of a core dependency.
type capabilitiesPayload struct {
	PlayableMediaTypes   []string `json:"playable_media_types"`
	SupportedCommands    []string `json:"supported_commands"`
	SupportsMediaControl bool     `json:"supports_media_control"`
	IconUrl              string   `json:"icon_url"`
	MessageCallbackUrl   string   `json:"message_callback_url"`
}

// EncodeCapabilities marshals the given fields into CapabilitiesJSON.
func (d *DeviceCapabilities) EncodeCapabilities(playableMediaTypes, supportedCommands []string, supportsMediaControl bool, messageCallbackUrl string) error {
	data, err := json.Marshal(capabilitiesPayload{
		PlayableMediaTypes:   playableMediaTypes,
		SupportedCommands:    supportedCommands,
		SupportsMediaControl: supportsMediaControl,
		IconUrl:              d.IconUrl,
		MessageCallbackUrl:   messageCallbackUrl,
	})
	if err != nil {
		return err
	}
	d.CapabilitiesJSON = string(data)
	return nil
}

// DecodeCapabilities unmarshals CapabilitiesJSON back into its fields.
func (d *DeviceCapabilities) DecodeCapabilities() (playableMediaTypes, supportedCommands []string, supportsMediaControl bool, messageCallbackUrl string, err error) {
	if d.CapabilitiesJSON == "" {
		return nil, nil, false, "", nil
	}
	var payload capabilitiesPayload
	if err := json.Unmarshal([]byte(d.CapabilitiesJSON), &payload); err != nil {
		return nil, nil, false, "", err
	}
	return payload.PlayableMediaTypes, payload.SupportedCommands, payload.SupportsMediaControl, payload.MessageCallbackUrl, nil
}
