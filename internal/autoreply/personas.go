package autoreply

import "github.com/angelmondragon/dmpilot-backend/pkg/enums"

// toneVoices describe how each tone should sound. They are prompt fragments,
// composed with the business context and guardrails at generation time.
var toneVoices = map[enums.Tone]string{
	enums.ToneFriendly: "Write warm, upbeat replies. Be encouraging and approachable, " +
		"use casual punctuation and at most one emoji per reply.",
	enums.ToneProfessional: "Write polished, courteous replies. Stay concise and clear, " +
		"avoid slang and emojis, and keep a helpful business register.",
	enums.ToneCasual: "Write relaxed, conversational replies like texting a friend. " +
		"Short sentences, everyday language, no corporate phrasing.",
	enums.ToneGirlfriendExperience: "Write affectionate, playful replies with a flirty undertone. " +
		"Be attentive and personal, and address the customer by their first name when you know it.",
}

var profileContexts = map[enums.BusinessProfile]string{
	enums.BusinessProfileFitlifeCoaching: "You answer Instagram DMs for a fitness coaching business. " +
		"Customers ask about training programs, nutrition plans, pricing and availability. " +
		"Nudge interested customers toward booking a consultation.",
	enums.BusinessProfileOnlyfansModel: "You answer Instagram DMs for a content creator. " +
		"Customers ask about subscriptions, custom content and availability. " +
		"Keep things suggestive at most, never explicit, and point customers to the paid page for more.",
	enums.BusinessProfileProductSales: "You answer Instagram DMs for an online shop. " +
		"Customers ask about products, sizing, shipping and returns. " +
		"Answer precisely and link the storefront when a purchase comes up.",
}

const promptGuardrails = "Never promise guaranteed results, never give medical advice, " +
	"never ask for passwords or payment details in chat, and never mention being an AI. " +
	"Keep replies under 500 characters."

type personaKey struct {
	Tone    enums.Tone
	Profile enums.BusinessProfile
}

// fallbackReplies are the canned responses used when generation fails or the
// generated text does not pass validation. They are deterministic per
// (tone, business profile) pair so delivery never depends on the model.
var fallbackReplies = map[personaKey]string{
	{enums.ToneFriendly, enums.BusinessProfileFitlifeCoaching}:             "Hey! Thanks so much for reaching out 😊 I'd love to help with your fitness goals — I'll get back to you personally very soon!",
	{enums.ToneFriendly, enums.BusinessProfileOnlyfansModel}:               "Hey you! Thanks for the message 😊 I'll reply personally soon — in the meantime, check out my page for the latest!",
	{enums.ToneFriendly, enums.BusinessProfileProductSales}:                "Hi! Thanks for getting in touch 😊 I'll check on that and get right back to you with the details!",
	{enums.ToneProfessional, enums.BusinessProfileFitlifeCoaching}:         "Thank you for your message. I will review your question and respond with the relevant coaching details shortly.",
	{enums.ToneProfessional, enums.BusinessProfileOnlyfansModel}:           "Thank you for reaching out. I will get back to you personally as soon as possible.",
	{enums.ToneProfessional, enums.BusinessProfileProductSales}:            "Thank you for contacting us. We will confirm the details and respond to your inquiry shortly.",
	{enums.ToneCasual, enums.BusinessProfileFitlifeCoaching}:               "Hey! Got your message — let me check and I'll get back to you in a bit!",
	{enums.ToneCasual, enums.BusinessProfileOnlyfansModel}:                 "Heyy, saw your message! Give me a sec and I'll get back to you soon!",
	{enums.ToneCasual, enums.BusinessProfileProductSales}:                  "Hey! Thanks for the message — let me double-check that for you and I'll reply soon!",
	{enums.ToneGirlfriendExperience, enums.BusinessProfileFitlifeCoaching}: "Hey love, so happy you messaged me! Give me a little bit and I'll get back to you, promise 💕",
	{enums.ToneGirlfriendExperience, enums.BusinessProfileOnlyfansModel}:   "Hi babe, you just made my day 💕 I'll reply properly in a little while — don't go anywhere!",
	{enums.ToneGirlfriendExperience, enums.BusinessProfileProductSales}:    "Hey sweetie, thanks for the message 💕 Let me look into that for you and I'll be right back!",
}

// FallbackReply returns the canned reply for the pair, falling back to the
// default persona's entry for unknown combinations.
func FallbackReply(tone enums.Tone, profile enums.BusinessProfile) string {
	if reply, ok := fallbackReplies[personaKey{tone, profile}]; ok {
		return reply
	}
	return fallbackReplies[personaKey{enums.ToneFriendly, enums.BusinessProfileFitlifeCoaching}]
}
