package domain

import (
	"fmt"
	"strings"
)

// Snapshot is one full set of facts reported for a device at one point in
// time, as sent by an agent. Optional fields are pointers so that "absent"
// and "zero value" stay distinguishable through decoding: only fields the
// agent actually supplied participate in a merge.
type Snapshot struct {
	Name        *string       `json:"name"`
	IPAddress   string        `json:"ip_address"`
	MACAddress  *string       `json:"mac_address"`
	DeviceType  *string       `json:"device_type"`
	OS          *string       `json:"os"`
	Status      *string       `json:"status"`
	MachineID   *string       `json:"machine_id"`
	NetworkInfo []interface{} `json:"network_info"`
	Hardware    ComponentMap  `json:"hardware_details"`

	// CustomNotes is lifted out of hardware_details by Normalize.
	CustomNotes *string `json:"-"`
}

// DeviceUpdate is a manual edit from the management API. Unlike Snapshot,
// every field is optional, including the IP address.
type DeviceUpdate struct {
	Name       *string      `json:"name"`
	IPAddress  *string      `json:"ip_address"`
	MACAddress *string      `json:"mac_address"`
	DeviceType *string      `json:"device_type"`
	OS         *string      `json:"os"`
	Status     *string      `json:"status"`
	MachineID  *string      `json:"machine_id"`
	Hardware   ComponentMap `json:"hardware_details"`
}

// Normalize validates the snapshot and shapes it into the canonical record
// form: required IP, lowercased MAC, top-level network facts folded into the
// hardware document, and custom notes lifted into their own field.
func (s *Snapshot) Normalize() error {
	s.IPAddress = strings.TrimSpace(s.IPAddress)
	if s.IPAddress == "" {
		return fmt.Errorf("%w: ip_address is required", ErrInvalidInput)
	}

	if s.MACAddress != nil {
		mac := strings.ToLower(strings.TrimSpace(*s.MACAddress))
		if mac == "" {
			s.MACAddress = nil
		} else {
			s.MACAddress = &mac
		}
	}

	if len(s.NetworkInfo) > 0 {
		if s.Hardware == nil {
			s.Hardware = ComponentMap{}
		}
		s.Hardware[ComponentNetwork] = s.NetworkInfo
	}

	if s.Hardware != nil {
		if raw, ok := s.Hardware["custom_notes"]; ok {
			if notes, ok := raw.(string); ok {
				s.CustomNotes = &notes
			}
			delete(s.Hardware, "custom_notes")
		}
	}

	return nil
}
