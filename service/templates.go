package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"call-insights/entities"
	"call-insights/repository"
)

var systemTemplates = []entities.AnalysisTemplate{
	{
		Name:        "Incident detection",
		Description: "Detect verbal aggression and conflict situations with exact time codes",
		Category:    "security",
		IsSystem:    true,
		QueryText: `Analyze the recording for signs of aggression and conflict.

Look for these incident types:
1. VERBAL AGGRESSION: shouting, insults, threats, profanity, raised voice
2. CONFLICT: arguments, mutual accusations, escalating tension
3. SOUNDS OF PHYSICAL AGGRESSION: impacts, falls, cries of pain

For EACH incident report:
- Exact start and end time in seconds
- Incident type
- Severity (low/medium/high)
- A short description of what happens
- A quote from the transcript when speech is present

Answer strictly as JSON:
{
  "summary": "overall description of the recording",
  "has_incidents": true,
  "total_incidents": 0,
  "incidents": [
    {"start_time": 0, "end_time": 0, "type": "verbal_aggression", "severity": "low", "description": "", "quote": ""}
  ],
  "overall_severity": "none"
}`,
	},
	{
		Name:        "Service quality",
		Description: "Score the agent: greeting, needs discovery, objection handling",
		Category:    "quality",
		IsSystem:    true,
		QueryText: `Score the quality of customer service on these criteria:

1. Greeting and introduction
2. Needs discovery
3. Solution presentation
4. Objection handling
5. Call closing

For each criterion report a score (1-5), a comment and a quote.

Answer as JSON:
{
  "summary": "overall assessment",
  "overall_score": 0,
  "findings": [
    {"criterion": "name", "score": 0, "comment": "", "evidence": ["quotes"]}
  ]
}`,
	},
	{
		Name:        "Refusal reasons",
		Description: "Why the customer walked away from the purchase or service",
		Category:    "sales",
		IsSystem:    true,
		QueryText: `Analyze the call and determine:

1. Was a purchase or deal completed? (yes/no)
2. If not, what was the concrete refusal reason?
3. Were competitors mentioned? Which ones?
4. What objections did the customer voice?
5. Was there an attempt to retain the customer?

Answer as JSON:
{
  "summary": "short digest",
  "deal_closed": false,
  "refusal_reason": "",
  "competitors": [],
  "objections": [],
  "retention_attempted": false
}`,
	},
}

// SeedSystemTemplates installs the built-in analysis templates once.
func SeedSystemTemplates(ctx context.Context, repo repository.Repository) error {
	count, err := repo.CountSystemTemplates(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, template := range systemTemplates {
		t := template
		t.ID = uuid.New()
		if err := repo.CreateTemplate(ctx, &t); err != nil {
			return err
		}
	}
	zerolog.Ctx(ctx).Info().Int("count", len(systemTemplates)).Msg("seeded system analysis templates")
	return nil
}
