package tonie

import "time"

// User is the current account.
type User struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
}

// BackendConfig carries the service's limits and feature flags.
type BackendConfig struct {
	Locales        []string `json:"locales"`
	UnicodeLocales []string `json:"unicodeLocales"`
	MaxChapters    int      `json:"maxChapters"`
	MaxSeconds     int      `json:"maxSeconds"`
	MaxBytes       int      `json:"maxBytes"`
	Accepts        []string `json:"accepts"`
	StageWarning   bool     `json:"stageWarning"`
	PaypalClientID string   `json:"paypalClientId"`
	SSOEnabled     bool     `json:"ssoEnabled"`
}

// Household groups the Tonieboxes and Creative Tonies of one account.
type Household struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerName string `json:"ownerName"`
	Access    string `json:"access"`
	CanLeave  bool   `json:"canLeave"`
}

// Chapter is one audio track on a Creative Tonie.
type Chapter struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	File        string  `json:"file"`
	Seconds     float64 `json:"seconds"`
	Transcoding bool    `json:"transcoding"`
}

// CreativeTonie is a recordable figurine with its chapter playlist.
type CreativeTonie struct {
	ID                string     `json:"id"`
	HouseholdID       string     `json:"householdId"`
	Name              string     `json:"name"`
	ImageURL          string     `json:"imageUrl"`
	SecondsRemaining  float64    `json:"secondsRemaining"`
	SecondsPresent    float64    `json:"secondsPresent"`
	ChaptersRemaining int        `json:"chaptersRemaining"`
	ChaptersPresent   int        `json:"chaptersPresent"`
	Transcoding       bool       `json:"transcoding"`
	LastUpdate        *time.Time `json:"lastUpdate,omitempty"`
	Chapters          []Chapter  `json:"chapters"`
}

// UploadRequest holds the presigned object-storage POST details.
type UploadRequest struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// FileUpload is the response to a file-upload request: where to send the
// bytes and the file id to attach as a chapter afterwards.
type FileUpload struct {
	Request UploadRequest `json:"request"`
	FileID  string        `json:"fileId"`
}

// ChapterPatch is the chapter representation accepted by playlist updates.
type ChapterPatch struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	File  string `json:"file"`
}
