// Package planner asks a generative-text API for a 5-day weekly workout
// plan. The request carries a fixed JSON response schema; anything the
// remote returns that does not conform is a single, retryable error —
// there is never a partial plan.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com"

// PlanExercise is one exercise of a generated day. Sets and reps are free
// text ("3", "8-12"), not guaranteed numeric.
type PlanExercise struct {
	Name string `json:"name"`
	Sets string `json:"sets"`
	Reps string `json:"reps"`
}

// DayPlan is one day of the generated weekly plan.
type DayPlan struct {
	Day       string         `json:"day"`
	Focus     string         `json:"focus"`
	Exercises []PlanExercise `json:"exercises"`
}

// WeeklyPlan is the full 5-day result.
type WeeklyPlan []DayPlan

// PlanError is any failure to produce a conforming plan: transport errors,
// non-success status, or a malformed payload. The caller may retry by
// resubmitting the goal.
type PlanError struct {
	Reason string
	Err    error
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan generation: %s: %v", e.Reason, e.Err)
	}
	return "plan generation: " + e.Reason
}

func (e *PlanError) Unwrap() error { return e.Err }

// Client calls the generateContent endpoint.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	httpc    *http.Client
	log      *slog.Logger
}

// New creates a planner client. An empty endpoint selects the hosted API.
func New(endpoint, model, apiKey string, log *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: 60 * time.Second},
		log:      log,
	}
}

// generateContent request/response shapes, trimmed to the fields used.

type genRequest struct {
	Contents         []genContent     `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type genContent struct {
	Role  string    `json:"role"`
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []genPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// responseSchema constrains the model to the weeklyPlan shape.
var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"weeklyPlan": map[string]any{
			"type":        "ARRAY",
			"description": "A 5-day workout plan.",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"day":   map[string]any{"type": "STRING"},
					"focus": map[string]any{"type": "STRING"},
					"exercises": map[string]any{
						"type": "ARRAY",
						"items": map[string]any{
							"type": "OBJECT",
							"properties": map[string]any{
								"name": map[string]any{"type": "STRING"},
								"sets": map[string]any{"type": "STRING"},
								"reps": map[string]any{"type": "STRING"},
							},
							"required": []string{"name", "sets", "reps"},
						},
					},
				},
				"required": []string{"day", "focus", "exercises"},
			},
		},
	},
	"required": []string{"weeklyPlan"},
}

// GeneratePlan produces a 5-day plan for the given free-text goal.
func (c *Client) GeneratePlan(ctx context.Context, goal string) (WeeklyPlan, error) {
	if goal == "" {
		return nil, &PlanError{Reason: "goal is empty"}
	}

	prompt := fmt.Sprintf(`You are an expert personal trainer. Create a well-balanced, 5-day weekly workout plan for a user whose goal is to %q. For each day, provide a focus (e.g., "Chest & Triceps") and a list of 4-5 exercises. For each exercise, specify the number of sets and reps. Provide the response as a valid JSON object adhering to the provided schema.`, goal)

	body, err := json.Marshal(genRequest{
		Contents: []genContent{{Role: "user", Parts: []genPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema,
		},
	})
	if err != nil {
		return nil, &PlanError{Reason: "encoding request", Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &PlanError{Reason: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &PlanError{Reason: "calling model", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &PlanError{Reason: fmt.Sprintf("model returned status %d", resp.StatusCode)}
	}

	var gr genResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, &PlanError{Reason: "decoding response", Err: err}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, &PlanError{Reason: "response has no candidates"}
	}

	var payload struct {
		WeeklyPlan WeeklyPlan `json:"weeklyPlan"`
	}
	if err := json.Unmarshal([]byte(gr.Candidates[0].Content.Parts[0].Text), &payload); err != nil {
		return nil, &PlanError{Reason: "decoding plan payload", Err: err}
	}

	if err := payload.WeeklyPlan.validate(); err != nil {
		return nil, err
	}
	c.log.Info("plan generated", "goal", goal, "days", len(payload.WeeklyPlan))
	return payload.WeeklyPlan, nil
}

func (p WeeklyPlan) validate() error {
	if len(p) != 5 {
		return &PlanError{Reason: fmt.Sprintf("plan has %d days, want 5", len(p))}
	}
	for _, d := range p {
		if d.Day == "" || d.Focus == "" {
			return &PlanError{Reason: "plan day missing day or focus"}
		}
		for _, x := range d.Exercises {
			if x.Name == "" {
				return &PlanError{Reason: "plan exercise missing name"}
			}
		}
	}
	return nil
}
