package scoring

import (
	"fmt"
	"strings"
)

const responseFormat = `interface Feedback {
  overallScore: number; //max 100
  ATS: {
    score: number; //integer 0-100, rate based on ATS suitability
    tips: string[]; //give 3-4 tips
  };
  toneAndStyle: { score: number; tips: { type: "good" | "improve"; tip: string; explanation: string }[] };
  content: { score: number; tips: { type: "good" | "improve"; tip: string; explanation: string }[] };
  structure: { score: number; tips: { type: "good" | "improve"; tip: string; explanation: string }[] };
  skills: { score: number; tips: { type: "good" | "improve"; tip: string; explanation: string }[] };
}`

// Instructions renders the evaluation prompt sent alongside the resume image.
func Instructions(req Request) string {
	var b strings.Builder
	b.WriteString("You are an expert in ATS (Applicant Tracking System) and resume analysis.\n")
	b.WriteString("Analyze and rate the attached resume image and suggest how to improve it.\n")
	b.WriteString("Be thorough and detailed. Low scores are fine when the resume is weak.\n")
	fmt.Fprintf(&b, "Company name: %s\n", strings.TrimSpace(req.CompanyName))
	fmt.Fprintf(&b, "Job title: %s\n", strings.TrimSpace(req.JobTitle))
	fmt.Fprintf(&b, "Job description: %s\n", strings.TrimSpace(req.JobDescription))
	b.WriteString("Provide the feedback using the following format:\n")
	b.WriteString(responseFormat)
	b.WriteString("\nReturn the analysis as a JSON object only, without any other text or backticks.")
	return b.String()
}
