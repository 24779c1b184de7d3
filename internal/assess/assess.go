// Package assess requests AI threat assessments for detected persons.
package assess

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vigilcam/vigil/internal/alert"
)

// Degraded assessment strings. Notification falls back to a templated
// message when it sees these.
const (
	Unavailable = "AI unavailable"
	Failed      = "Assessment failed"
)

// Assessor produces a free-text threat assessment for a detected person.
type Assessor interface {
	Assess(ctx context.Context, person alert.Person) string
}

// GeminiAssessor assesses threats with the Gemini API. A nil client (no
// API key configured) degrades to the Unavailable assessment.
type GeminiAssessor struct {
	client *genai.Client
	model  string
}

// NewGeminiAssessor creates a GeminiAssessor. When apiKey is empty the
// assessor is disabled and every call returns Unavailable.
func NewGeminiAssessor(ctx context.Context, apiKey string) *GeminiAssessor {
	if apiKey == "" {
		log.Println("GEMINI_API_KEY not set, AI assessment disabled")
		return &GeminiAssessor{}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Printf("Gemini init failed: %v", err)
		return &GeminiAssessor{}
	}

	log.Println("Gemini AI initialized")
	return &GeminiAssessor{
		client: client,
		model:  "gemini-2.5-flash",
	}
}

// Assess returns the model's assessment of the person, or a degraded
// string when the service is unavailable or the call fails. Never returns
// an error; callers always proceed to notification.
func (a *GeminiAssessor) Assess(ctx context.Context, person alert.Person) string {
	if a.client == nil {
		return Unavailable
	}

	prompt := BuildPrompt(person, time.Now())
	content := genai.NewContentFromText(prompt, genai.RoleUser)

	resp, err := a.client.Models.GenerateContent(ctx, a.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.7)),
		MaxOutputTokens: 200,
	})
	if err != nil {
		log.Printf("AI error: %v", err)
		return Failed
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Failed
	}

	log.Printf("AI: %s -> %.80s", person.Identity, text)
	return text
}

// BuildPrompt composes the assessment prompt for a detected person.
func BuildPrompt(person alert.Person, now time.Time) string {
	status := "INTRUDER"
	if person.Identity.IsKnown() {
		status = "AUTHORIZED"
	}

	return fmt.Sprintf(`SECURITY ALERT - %s

SUBJECT: %s
STATUS: %s
LOCATION: %.1f degrees from camera

Output format:
THREAT: [LOW/MEDIUM/HIGH]
STATUS: [AUTHORIZED/INTRUDER]
ACTION: [What to do in 15 words]

Keep recommendations practical for a vehicle personal security system (i.e. Review footage and proceed with caution).`,
		now.Format("3:04:05 PM"), person.Identity, status, person.Tracking.Angle)
}

// IsDegraded reports whether an assessment is one of the degraded strings
// rather than real model output.
func IsDegraded(assessment string) bool {
	return assessment == "" || assessment == Unavailable || assessment == Failed
}
