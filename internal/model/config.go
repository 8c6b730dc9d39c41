package model

import "time"

// ClientConfig is the user configuration file of the control panel.
type ClientConfig struct {
	BackendURL     string
	BackendTimeout time.Duration
	DefaultProfile string
	Profiles       []ServiceProfile
}
