// Package models holds the request and response shapes of the HTTP API.
package models

import "time"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2026-03-01T10:00:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// CommandData is the wire form of a blink command.
type CommandData struct {
	PeriodMs int    `json:"period_ms" example:"50" doc:"Per-bit hold in milliseconds"`
	Pattern  string `json:"pattern" example:"1000" doc:"Bitstream of 0s and 1s, leftmost bit played first"`
	Repeat   int    `json:"repeat" example:"3" doc:"Full passes to play; -1 repeats until preempted"`
	Modifier string `json:"modifier,omitempty" example:"save" enum:",save,restore,exit" doc:"Optional modifier"`
}

// CommandRequest queues a command for one LED.
type CommandRequest struct {
	Name string `path:"name" example:"status" doc:"LED name"`
	Body CommandData
}

// CommandAcceptedData acknowledges a queued command.
type CommandAcceptedData struct {
	LED     string `json:"led" example:"status" doc:"LED name"`
	Pending int    `json:"pending" example:"1" doc:"Commands waiting in the LED's queue"`
}

type CommandAcceptedResponse struct {
	Status int
	Body   CommandAcceptedData
}

// LEDData merges the persisted spec with the live player snapshot.
type LEDData struct {
	Name        string       `json:"name" example:"status" doc:"LED name"`
	Pin         int          `json:"pin" example:"17" doc:"GPIO pin number"`
	ActiveLow   bool         `json:"active_low,omitempty" doc:"True when driving the line low turns the LED on"`
	Enabled     bool         `json:"enabled" doc:"Whether a player runs for this LED"`
	Description string       `json:"description,omitempty" doc:"Free-form description"`
	State       string       `json:"state,omitempty" example:"playing" enum:",idle,playing,exited" doc:"Player state"`
	Current     *CommandData `json:"current,omitempty" doc:"Most recently accepted command"`
	Saved       bool         `json:"saved" doc:"Whether the one-deep save slot holds a command"`
	Pending     int          `json:"pending" example:"0" doc:"Commands waiting in the queue"`

	CreatedAt time.Time `json:"created_at,omitempty" doc:"Spec creation time"`
	UpdatedAt time.Time `json:"updated_at,omitempty" doc:"Spec last update time"`
}

type LEDResponse struct {
	Body LEDData
}

type LEDListData struct {
	LEDs  []LEDData `json:"leds" doc:"All configured LEDs"`
	Count int       `json:"count" example:"2" doc:"Number of LEDs"`
}

type LEDListResponse struct {
	Body LEDListData
}

// CreateLEDRequest defines a new LED.
type CreateLEDRequest struct {
	Body struct {
		Name        string `json:"name" example:"status" minLength:"1" doc:"LED name, unique"`
		Pin         int    `json:"pin" example:"17" minimum:"0" doc:"GPIO pin number"`
		ActiveLow   bool   `json:"active_low,omitempty" doc:"True for active-low wiring"`
		Description string `json:"description,omitempty" doc:"Free-form description"`
	}
}

// UpdateLEDRequest changes an existing LED definition.
type UpdateLEDRequest struct {
	Name string `path:"name" example:"status" doc:"LED name"`
	Body struct {
		Pin         int    `json:"pin" example:"17" minimum:"0" doc:"GPIO pin number"`
		ActiveLow   bool   `json:"active_low,omitempty" doc:"True for active-low wiring"`
		Enabled     bool   `json:"enabled" doc:"Whether a player should run for this LED"`
		Description string `json:"description,omitempty" doc:"Free-form description"`
	}
}

// Stats models
type LEDStatsData struct {
	CommandsAccepted float64 `json:"commands_accepted" doc:"Commands accepted for playback"`
	CommandsRejected float64 `json:"commands_rejected" doc:"Commands discarded with a recoverable error"`
	PatternsStarted  float64 `json:"patterns_started" doc:"Pattern playbacks started"`
}

type StatsData struct {
	LEDs map[string]LEDStatsData `json:"leds" doc:"Per-LED counters since startup"`
}

type StatsResponse struct {
	Body StatsData
}

// Update models
type UpdateCheckData struct {
	CurrentVersion  string    `json:"current_version" example:"1.2.0" doc:"Running version"`
	LatestVersion   string    `json:"latest_version" example:"1.3.0" doc:"Latest release version"`
	ReleaseNotes    string    `json:"release_notes,omitempty" doc:"Release notes"`
	ReleaseURL      string    `json:"release_url,omitempty" doc:"Release page URL"`
	PublishedAt     time.Time `json:"published_at,omitempty" doc:"Release publication time"`
	UpdateAvailable bool      `json:"update_available" doc:"Whether a newer version exists"`
}

type UpdateCheckResponse struct {
	Body UpdateCheckData
}

type UpdateStatusData struct {
	State          string     `json:"state" example:"idle" doc:"Updater state"`
	CurrentVersion string     `json:"current_version" doc:"Running version"`
	TargetVersion  string     `json:"target_version,omitempty" doc:"Version being applied"`
	Error          string     `json:"error,omitempty" doc:"Last updater error"`
	LastChecked    *time.Time `json:"last_checked,omitempty" doc:"Time of the last check"`
}

type UpdateStatusResponse struct {
	Body UpdateStatusData
}

type MessageData struct {
	Message string `json:"message" example:"Restarting..." doc:"Status message"`
}

type MessageResponse struct {
	Body MessageData
}
