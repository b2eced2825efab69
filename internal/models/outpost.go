package models

import "time"

// Session is the Test Central session obtained at login.
type Session struct {
	Email      string    `json:"email"`
	Token      string    `json:"token"`
	ObtainedAt time.Time `json:"obtained_at"`
}

// Registration is the payload announcing this outpost to Test Central.
type Registration struct {
	Name      string `json:"name"`
	Silo      string `json:"silo"`
	IP        string `json:"ip"`
	StatusURL string `json:"status_url"`
	ExecURL   string `json:"exec_url"`
}
