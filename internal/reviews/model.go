package reviews

import (
	"encoding/json"
	"strings"
	"time"
)

// ResumeUpload is one persisted evaluation. Records are immutable once created.
type ResumeUpload struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	CompanyName    string          `json:"companyName"`
	JobTitle       string          `json:"jobTitle"`
	JobDescription string          `json:"jobDescription"`
	ResumeImageURL string          `json:"resumeImageUrl"`
	Feedback       json.RawMessage `json:"feedback"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Summary is the list view of a record.
type Summary struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	JobTitle    string    `json:"jobTitle"`
	ATSScore    int       `json:"atsScore"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Submission is the input to SubmitFeedback.
type Submission struct {
	CompanyName    string `json:"companyName" validate:"required"`
	JobTitle       string `json:"jobTitle" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
	ResumeImageURL string `json:"resumeImageUrl" validate:"required,url"`
}

func (s Submission) trimmed() Submission {
	return Submission{
		CompanyName:    strings.TrimSpace(s.CompanyName),
		JobTitle:       strings.TrimSpace(s.JobTitle),
		JobDescription: strings.TrimSpace(s.JobDescription),
		ResumeImageURL: strings.TrimSpace(s.ResumeImageURL),
	}
}

// Summarize builds the list view of r.
func (r ResumeUpload) Summarize() Summary {
	score, _ := ATS(r.Feedback)
	return Summary{
		ID:          r.ID,
		CompanyName: r.CompanyName,
		JobTitle:    r.JobTitle,
		ATSScore:    score,
		CreatedAt:   r.CreatedAt,
	}
}
