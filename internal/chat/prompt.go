// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

// SystemPrompt is the assistant persona and its safety rules.
const SystemPrompt = `You are Uhai Assist, an AI-powered first aid assistant for Kenya and Africa.
Provide clear, step-by-step, life-saving instructions in simple language.
Always start with: "CALL 999 IMMEDIATELY if the situation is life-threatening."
Use patient context if available.
Never give medical advice beyond first aid.
Block self-harm, drug dosage, or non-emergency requests.`

// QuickPrompt is a one-tap emergency question.
type QuickPrompt struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
	Icon   string `json:"icon"`
}

// QuickPrompts are offered on the assistant screen.
var QuickPrompts = []QuickPrompt{
	{Label: "Chest Pain", Prompt: "Someone is having severe chest pain and difficulty breathing", Icon: "🤕"},
	{Label: "Unconscious Person", Prompt: "An adult is unconscious and not responding", Icon: "😵"},
	{Label: "Severe Bleeding", Prompt: "Heavy bleeding from the arm that won't stop", Icon: "🩸"},
	{Label: "Burns", Prompt: "Child has a burn from hot water on the hand", Icon: "🔥"},
	{Label: "Choking Adult", Prompt: "An adult is choking and cannot speak or breathe", Icon: "😷"},
	{Label: "Choking Child", Prompt: "A child is choking on food and cannot cry", Icon: "👶"},
}
