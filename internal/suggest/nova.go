package suggest

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

var novaModels = map[string]string{
	"nova-lite": "us.amazon.nova-2-lite-v1:0",
}

// IsNova reports whether model names a Bedrock Nova model.
func IsNova(model string) bool {
	return strings.HasPrefix(model, "nova")
}

// Converser is the Bedrock runtime call used for suggestions.
type Converser interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type novaBackend struct {
	client Converser
	model  string
}

// NewNova creates a suggester that calls Nova through Bedrock Converse.
// Unknown model names fall back to nova-lite.
func NewNova(client Converser, model string) *Suggester {
	modelID := novaModels[model]
	if modelID == "" {
		modelID = novaModels["nova-lite"]
	}
	return &Suggester{backend: &novaBackend{client: client, model: modelID}}
}

func (b *novaBackend) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.model),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		},
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: user},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(maxTokens),
			Temperature: aws.Float32(temperature),
		},
	})
	if err != nil {
		return "", err
	}
	return extractNovaText(resp), nil
}

func extractNovaText(resp *bedrockruntime.ConverseOutput) string {
	if resp == nil || resp.Output == nil {
		return ""
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var parts []string
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			parts = append(parts, tb.Value)
		}
	}
	return strings.Join(parts, "")
}
