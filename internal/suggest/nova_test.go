package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverser struct {
	replies []string
	err     error
	inputs  []*bedrockruntime.ConverseInput
}

func (f *fakeConverser) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	reply := f.replies[len(f.replies)-1]
	if n := len(f.inputs); n <= len(f.replies) {
		reply = f.replies[n-1]
	}
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role:    types.ConversationRoleAssistant,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: reply}},
		}},
	}, nil
}

func TestNovaSuggest(t *testing.T) {
	fc := &fakeConverser{replies: []string{`{"voicePrompt":"Welcome aboard.","imagePrompt":"A lighthouse at dusk"}`}}
	p, err := NewNova(fc, "nova-lite").Suggest(context.Background(), "Ep 1", "Test")
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard.", p.VoicePrompt)
	assert.Equal(t, "A lighthouse at dusk", p.ImagePrompt)

	require.Len(t, fc.inputs, 1)
	in := fc.inputs[0]
	assert.Equal(t, novaModels["nova-lite"], aws.ToString(in.ModelId))
	require.Len(t, in.System, 1)
	assert.Equal(t, systemPrompt, in.System[0].(*types.SystemContentBlockMemberText).Value)
	require.Len(t, in.Messages, 1)
	assert.Contains(t, in.Messages[0].Content[0].(*types.ContentBlockMemberText).Value, "Title: Ep 1")
	assert.EqualValues(t, maxTokens, aws.ToInt32(in.InferenceConfig.MaxTokens))
}

func TestNovaSuggestRetriesEmptyReply(t *testing.T) {
	fc := &fakeConverser{replies: []string{"", `{"voicePrompt":"Hi","imagePrompt":"Waves"}`}}
	p, err := NewNova(fc, "unknown").Suggest(context.Background(), "Ep 1", "")
	require.NoError(t, err)
	assert.Equal(t, "Waves", p.ImagePrompt)
	assert.Len(t, fc.inputs, 2)
	assert.Equal(t, novaModels["nova-lite"], aws.ToString(fc.inputs[1].ModelId))
}

func TestNovaSuggestConverseError(t *testing.T) {
	fc := &fakeConverser{err: errors.New("throttled")}
	_, err := NewNova(fc, "nova-lite").Suggest(context.Background(), "Ep 1", "Test")
	require.Error(t, err)
	assert.ErrorContains(t, err, "throttled")
	assert.Len(t, fc.inputs, 1)
}

func TestIsNova(t *testing.T) {
	assert.True(t, IsNova("nova-lite"))
	assert.False(t, IsNova("haiku"))
	assert.False(t, IsNova(""))
}
