package autoreply

import (
	"context"
	"strings"

	"github.com/angelmondragon/dmpilot-backend/internal/tone"
	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
	"github.com/angelmondragon/dmpilot-backend/pkg/openai"
)

// historyLimit caps how many prior messages go into the prompt, newest kept.
const historyLimit = 10

// CompletionClient is the LLM surface the generator depends on.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt string, history []openai.Message) (*openai.Completion, error)
}

// GenerateParams carries everything needed for one reply.
type GenerateParams struct {
	Profile           tone.Profile
	History           []models.Message
	CustomerFirstName string
}

// Reply is one generated (or canned) response.
type Reply struct {
	Content    string
	Fallback   bool
	TokensUsed int
}

// Generator produces reply text for a conversation. An empty history opens
// the thread from the system prompt alone. Provider failures and invalid
// completions degrade to the deterministic fallback for the persona.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (*Reply, error)
}

type generator struct {
	llm  CompletionClient
	logg *logger.Logger
}

// NewGenerator wires the reply generator.
func NewGenerator(llm CompletionClient, logg *logger.Logger) (Generator, error) {
	if llm == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "completion client required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "generator logger required")
	}
	return &generator{llm: llm, logg: logg}, nil
}

func (g *generator) Generate(ctx context.Context, params GenerateParams) (*Reply, error) {
	systemPrompt := BuildSystemPrompt(params.Profile, params.CustomerFirstName)
	history := promptHistory(params.History)

	completion, err := g.llm.Complete(ctx, systemPrompt, history)
	if err != nil {
		g.logg.Error(ctx, "llm completion failed, using fallback", err)
		return g.fallback(params.Profile), nil
	}

	content := truncateReply(strings.TrimSpace(completion.Content))
	validation := ValidateReply(content)
	if !validation.IsValid() {
		g.logg.Warn(g.logg.WithField(ctx, "issues", strings.Join(validation.Issues, "; ")), "generated reply failed validation, using fallback")
		return g.fallback(params.Profile), nil
	}

	return &Reply{Content: content, TokensUsed: completion.TotalTokens}, nil
}

func (g *generator) fallback(profile tone.Profile) *Reply {
	return &Reply{
		Content:  FallbackReply(profile.Tone, profile.BusinessProfile),
		Fallback: true,
	}
}

// BuildSystemPrompt composes the persona voice, business context, guardrails
// and the account's custom instructions into one system message.
func BuildSystemPrompt(profile tone.Profile, customerFirstName string) string {
	voice, ok := toneVoices[profile.Tone]
	if !ok {
		voice = toneVoices[enums.ToneFriendly]
	}
	businessContext, ok := profileContexts[profile.BusinessProfile]
	if !ok {
		businessContext = profileContexts[enums.BusinessProfileFitlifeCoaching]
	}

	var b strings.Builder
	b.WriteString(businessContext)
	b.WriteString("\n\n")
	b.WriteString(voice)
	if profile.Tone == enums.ToneGirlfriendExperience && customerFirstName != "" {
		b.WriteString("\nThe customer's first name is ")
		b.WriteString(customerFirstName)
		b.WriteString(".")
	}
	b.WriteString("\n\n")
	b.WriteString(promptGuardrails)
	if instructions := strings.TrimSpace(profile.CustomInstructions); instructions != "" {
		b.WriteString("\n\nAdditional instructions from the business owner:\n")
		b.WriteString(instructions)
	}
	return b.String()
}

// promptHistory maps the newest messages to chat roles, oldest first.
// Customer messages become user turns; anything sent from the business side,
// human or generated, becomes an assistant turn.
func promptHistory(messages []models.Message) []openai.Message {
	start := 0
	if len(messages) > historyLimit {
		start = len(messages) - historyLimit
	}

	history := make([]openai.Message, 0, len(messages)-start)
	for _, message := range messages[start:] {
		role := openai.RoleAssistant
		if message.SenderType == enums.SenderTypeCustomer {
			role = openai.RoleUser
		}
		history = append(history, openai.Message{Role: role, Content: message.Content})
	}
	return history
}
