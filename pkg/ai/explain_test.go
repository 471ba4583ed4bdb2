package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

func explainFixture() ([]common.Node, []common.Edge) {
	nodes := []common.Node{
		{ID: "nd_1", Label: "Jane Smith", Type: common.NodeTypeJournalist, Description: "Senior tech reporter"},
		{ID: "nd_2", Label: "AI Regulation Deep Dive", Type: common.NodeTypeContentPiece},
		{ID: "nd_3", Label: "AI Policy", Type: common.NodeTypeTopic},
	}
	edges := []common.Edge{
		{ID: "ed_1", Type: common.EdgeTypeAuthoredBy, SourceNodeID: "nd_2", TargetNodeID: "nd_1", Weight: 1},
		{ID: "ed_2", Type: common.EdgeTypeCovers, SourceNodeID: "nd_2", TargetNodeID: "nd_3", Weight: 0.8, Bidirectional: true},
	}
	return nodes, edges
}

func TestBuildPathPrompt(t *testing.T) {
	nodes, edges := explainFixture()
	prompt := BuildPathPrompt(nodes, edges)

	for _, want := range []string{
		`"Jane Smith" (type: journalist)`,
		"Senior tech reporter",
		"[authored_by, weight 1.00]",
		"[covers, weight 0.80]",
		"<->",
		`Explain how "Jane Smith" is connected to "AI Policy" through this 2-hop path.`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

type fakeFormatClient struct {
	gotName   string
	gotPrompt string
	fill      func(out any)
}

func (f *fakeFormatClient) GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	return "", nil
}

func (f *fakeFormatClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...GenerateOption) error {
	f.gotName = name
	f.gotPrompt = prompt
	if f.fill != nil {
		f.fill(out)
	}
	return nil
}

func (f *fakeFormatClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, nil
}

func (f *fakeFormatClient) ResetMetrics()            {}
func (f *fakeFormatClient) GetMetrics() ModelMetrics { return ModelMetrics{} }

func TestExplainPath(t *testing.T) {
	nodes, edges := explainFixture()
	client := &fakeFormatClient{
		fill: func(out any) {
			exp := out.(*PathExplanation)
			exp.Summary = "connected through an article"
			exp.Steps = []PathStep{{From: "Jane Smith", To: "AI Regulation Deep Dive", Relationship: "authored_by"}}
		},
	}

	got, err := ExplainPath(context.Background(), client, nodes, edges)
	if err != nil {
		t.Fatalf("ExplainPath() error = %v", err)
	}
	if got.Summary != "connected through an article" || len(got.Steps) != 1 {
		t.Errorf("ExplainPath() = %+v", got)
	}
	if client.gotName != "path_explanation" {
		t.Errorf("schema name = %q, want path_explanation", client.gotName)
	}
	if !strings.Contains(client.gotPrompt, "Jane Smith") {
		t.Errorf("prompt does not mention the start node:\n%s", client.gotPrompt)
	}
}

func TestExplainPathRejectsMisalignedInput(t *testing.T) {
	nodes, _ := explainFixture()
	if _, err := ExplainPath(context.Background(), &fakeFormatClient{}, nodes, nil); err == nil {
		t.Error("ExplainPath() accepted a misaligned node/edge sequence")
	}
}
