package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

const (
	// descriptionTokenBudget caps how many tokens of a node description go
	// into an explanation prompt. Long imported bios would otherwise crowd
	// out the path structure.
	descriptionTokenBudget = 120

	explainSystemPrompt = `You are an analyst for a communications intelligence platform.
You are given a path through a knowledge graph of journalists, media outlets,
content pieces, topics, campaigns, organizations, executives, events, and keywords.
Explain in plain language how the two endpoints are connected, one hop at a time.
Base every statement only on the nodes and relationships given; never invent
connections that are not in the path.`
)

// PathStep explains a single hop of a path.
type PathStep struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Relationship string `json:"relationship"`
	Explanation  string `json:"explanation"`
}

// PathExplanation is the structured output of an explain-path request.
type PathExplanation struct {
	Summary string     `json:"summary"`
	Steps   []PathStep `json:"steps"`
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// truncateTokens cuts text down to maxTokens. When the tokenizer cannot be
// initialized it falls back to a rough 4-characters-per-token cut.
func truncateTokens(text string, maxTokens int) string {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	if enc == nil {
		if len(text) > maxTokens*4 {
			return text[:maxTokens*4]
		}
		return text
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}

// BuildPathPrompt renders a found path as the user prompt for an
// explanation request. Nodes and edges must be aligned the way the path
// finder returns them: edges[i] connects nodes[i] and nodes[i+1].
func BuildPathPrompt(nodes []common.Node, edges []common.Edge) string {
	var b strings.Builder

	b.WriteString("Path:\n")
	for i, n := range nodes {
		fmt.Fprintf(&b, "- Node %d: %q (type: %s)", i+1, n.Label, n.Type)
		if n.Description != "" {
			fmt.Fprintf(&b, " - %s", truncateTokens(n.Description, descriptionTokenBudget))
		}
		b.WriteString("\n")

		if i < len(edges) {
			e := edges[i]
			direction := "->"
			if e.Bidirectional {
				direction = "<->"
			}
			fmt.Fprintf(&b, "  %s [%s, weight %.2f]", direction, e.Type, e.Weight)
			if e.Label != "" {
				fmt.Fprintf(&b, " %q", e.Label)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b,
		"\nExplain how %q is connected to %q through this %d-hop path.",
		nodes[0].Label, nodes[len(nodes)-1].Label, len(edges),
	)
	return b.String()
}

// ExplainPath asks the model for a structured natural-language explanation
// of a found path.
func ExplainPath(ctx context.Context, client GraphAIClient, nodes []common.Node, edges []common.Edge) (*PathExplanation, error) {
	if len(nodes) < 2 || len(edges) != len(nodes)-1 {
		return nil, fmt.Errorf("explain path: need an aligned node/edge sequence, got %d nodes and %d edges", len(nodes), len(edges))
	}

	var out PathExplanation
	err := client.GenerateCompletionWithFormat(
		ctx,
		"path_explanation",
		"Step-by-step explanation of a knowledge graph path",
		BuildPathPrompt(nodes, edges),
		&out,
		WithSystemPrompts(explainSystemPrompt),
		WithTemperature(0.2),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
