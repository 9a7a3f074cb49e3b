package models

// Question is a single trivia prompt.
type Question struct {
	Text            string `json:"questionText"`
	Answer          string `json:"answer"`
	DurationSeconds int    `json:"duration"`
}
