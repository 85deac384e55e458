package simulate

import "time"

// Config holds configuration for a simulated session run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Members    int           // Number of synthetic members
	AdminToken string        // Bearer token for session control
	Timeout    time.Duration // HTTP request timeout
	Close      bool          // Close the window after submitting
	Verbose    bool          // Enable verbose logging
}

// Member is a synthetic community member with a fabricated link.
type Member struct {
	ID     string `json:"member"`
	Handle string `json:"handle"`
	Link   string `json:"link"`
}

// submissionAck mirrors the response of POST /submissions.
type submissionAck struct {
	Target   string `json:"target"`
	Recorded bool   `json:"recorded"`
}

// statusView mirrors the response of GET /status.
type statusView struct {
	State        string `json:"state"`
	SessionID    string `json:"session_id"`
	Targets      int    `json:"targets"`
	Participants int    `json:"participants"`
}

// Stats holds run statistics.
type Stats struct {
	MembersRegistered  int
	SubmissionsPosted  int
	SubmissionsIgnored int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
