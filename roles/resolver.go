// Package roles assigns semantic roles (Employee, Customer, ...) to
// diarized speaker labels.
package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"call-insights/constant"
	"call-insights/llm"
	"call-insights/transcript"
)

// sampleUtterances caps how many utterances per speaker feed the
// classification prompt.
const sampleUtterances = 10

// promptSampleLimit truncates each speaker's sample inside the prompt.
const promptSampleLimit = 300

type Resolver struct {
	generator llm.Generator
}

func NewResolver(generator llm.Generator) *Resolver {
	return &Resolver{generator: generator}
}

// Resolve classifies every speaker of the transcript and returns a copy
// with roles applied to segments and the speaker_roles mapping filled in.
// It never fails: any LLM transport or parse problem degrades to the
// deterministic fallback assignment.
func (r *Resolver) Resolve(ctx context.Context, t *transcript.Transcript) *transcript.Transcript {
	order := t.SpeakerOrder()
	if len(order) == 0 {
		return t
	}

	mapping, err := r.classify(ctx, t, order)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("role classification failed, using fallback assignment")
		mapping = FallbackRoles(order)
	}

	return t.ApplyRoles(mapping, constant.RoleUnknown)
}

func (r *Resolver) classify(ctx context.Context, t *transcript.Transcript, order []string) (map[string]string, error) {
	if r.generator == nil {
		return nil, fmt.Errorf("no generator configured")
	}

	prompt := buildPrompt(t.SpeakerSamples(sampleUtterances), order)
	raw, err := r.generator.Generate(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		SpeakerRoles map[string]string `json:"speaker_roles"`
		Reasoning    string            `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("unparsable role response: %w", err)
	}
	if len(parsed.SpeakerRoles) == 0 {
		return nil, fmt.Errorf("role response carries no speaker_roles")
	}

	zerolog.Ctx(ctx).Debug().Interface("speaker_roles", parsed.SpeakerRoles).Str("reasoning", parsed.Reasoning).Msg("roles classified")
	return parsed.SpeakerRoles, nil
}

func buildPrompt(samples map[string]string, order []string) string {
	var b strings.Builder
	b.WriteString("You are a call-center conversation analyst. Determine the role of each speaker in the call recording.\n\n")
	b.WriteString("Available roles: Employee (agent, operator), Customer (caller), Other (unclear).\n\n")
	b.WriteString("Utterance samples per speaker:\n\n")

	speakers := append([]string(nil), order...)
	sort.Strings(speakers)
	for _, speaker := range speakers {
		sample := samples[speaker]
		if len(sample) > promptSampleLimit {
			sample = sample[:promptSampleLimit] + "..."
		}
		fmt.Fprintf(&b, "%s: %q\n", speaker, sample)
	}

	b.WriteString("\nEmployee signals: greeting on behalf of a company, offering help, professional vocabulary, clarifying questions.\n")
	b.WriteString("Customer signals: asking about price or availability, stating needs, informal speech.\n\n")
	b.WriteString("Answer STRICTLY as JSON:\n")
	b.WriteString(`{"speaker_roles": {"SPEAKER_00": "Employee", "SPEAKER_01": "Customer"}, "reasoning": "short explanation"}`)
	return b.String()
}

// FallbackRoles assigns roles by order of first appearance: the speaker who
// opens the call is the Employee, the second the Customer, the rest
// Participant-N. Deterministic by policy; callers rely on exact
// reproducibility.
func FallbackRoles(order []string) map[string]string {
	mapping := make(map[string]string, len(order))
	for i, speaker := range order {
		switch i {
		case 0:
			mapping[speaker] = constant.RoleEmployee
		case 1:
			mapping[speaker] = constant.RoleCustomer
		default:
			mapping[speaker] = fmt.Sprintf("Participant-%d", i+1)
		}
	}
	return mapping
}
