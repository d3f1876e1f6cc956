// Package roleplaytool provides built-in MCP tools that let the language
// model drive a roleplay scenario: adopting a character, walking a scripted
// emotional arc, and dropping back out of character.
//
// Three tools are exported via [Tools]:
//   - "start_roleplay"       — begin a scenario with a character and an
//     ordered emotion sequence.
//   - "set_roleplay_emotion" — jump the character to a specific emotional
//     posture, including "neutral" for a debrief.
//   - "end_roleplay"         — end the scenario and return to normal mode.
//
// All handlers are safe for concurrent use; they serialise through the
// session's own lock.
package roleplaytool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mirelle-ai/cadence/internal/mcp"
	"github.com/mirelle-ai/cadence/internal/mcp/tools"
	"github.com/mirelle-ai/cadence/internal/roleplay"
)

// startArgs is the JSON-decoded input for the "start_roleplay" tool.
type startArgs struct {
	// Character is the persona the voice should adopt (e.g. "Mom", "Boss").
	Character string `json:"character"`

	// ScenarioEmotions is the ordered emotional arc for the scenario.
	ScenarioEmotions []string `json:"scenario_emotions"`
}

// startResult is the JSON-encoded acknowledgement of "start_roleplay".
type startResult struct {
	Status         string `json:"status"`
	Character      string `json:"character"`
	CurrentEmotion string `json:"current_emotion"`
	TotalStages    int    `json:"total_stages"`
}

// setEmotionArgs is the JSON-decoded input for "set_roleplay_emotion".
type setEmotionArgs struct {
	// Emotion is the posture to jump to. "neutral" drops the character into
	// a debrief while keeping the scenario active.
	Emotion string `json:"emotion"`
}

// setEmotionResult is the JSON-encoded acknowledgement of "set_roleplay_emotion".
type setEmotionResult struct {
	Status         string `json:"status"`
	CurrentEmotion string `json:"current_emotion"`
	InDebrief      bool   `json:"in_debrief"`
}

// endResult is the JSON-encoded acknowledgement of "end_roleplay".
type endResult struct {
	Status string `json:"status"`
}

// startHandler begins a scenario on session.
func startHandler(session *roleplay.Session) func(context.Context, string) (string, error) {
	return func(_ context.Context, args string) (string, error) {
		var a startArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("roleplaytool: failed to parse arguments: %w", err)
		}
		if a.Character == "" {
			return "", fmt.Errorf("roleplaytool: character must not be empty")
		}
		if err := session.Start(a.Character, a.ScenarioEmotions); err != nil {
			return "", fmt.Errorf("roleplaytool: %w", err)
		}

		st := session.Snapshot()
		res, err := json.Marshal(startResult{
			Status:         "started",
			Character:      st.Character,
			CurrentEmotion: st.CurrentEmotion,
			TotalStages:    len(st.ScenarioEmotions),
		})
		if err != nil {
			return "", fmt.Errorf("roleplaytool: failed to encode result: %w", err)
		}
		return string(res), nil
	}
}

// setEmotionHandler overrides the session's current emotional posture.
func setEmotionHandler(session *roleplay.Session) func(context.Context, string) (string, error) {
	return func(_ context.Context, args string) (string, error) {
		var a setEmotionArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("roleplaytool: failed to parse arguments: %w", err)
		}
		if a.Emotion == "" {
			return "", fmt.Errorf("roleplaytool: emotion must not be empty")
		}
		if !session.Snapshot().Active {
			return "", fmt.Errorf("roleplaytool: no active roleplay scenario")
		}
		session.SetEmotion(a.Emotion)

		st := session.Snapshot()
		res, err := json.Marshal(setEmotionResult{
			Status:         "updated",
			CurrentEmotion: st.CurrentEmotion,
			InDebrief:      st.InDebrief(),
		})
		if err != nil {
			return "", fmt.Errorf("roleplaytool: failed to encode result: %w", err)
		}
		return string(res), nil
	}
}

// endHandler ends the scenario. Ending an inactive session is not an error.
func endHandler(session *roleplay.Session) func(context.Context, string) (string, error) {
	return func(_ context.Context, _ string) (string, error) {
		session.End()
		res, err := json.Marshal(endResult{Status: "ended"})
		if err != nil {
			return "", fmt.Errorf("roleplaytool: failed to encode result: %w", err)
		}
		return string(res), nil
	}
}

// Tools returns the roleplay control tools bound to session, ready for
// registration with the MCP Host.
func Tools(session *roleplay.Session) []tools.Tool {
	return []tools.Tool{
		{
			Definition: mcp.ToolDefinition{
				Name:        "start_roleplay",
				Description: "Begin a roleplay scenario. The voice adopts the given character and walks the scenario_emotions sequence stage by stage as the conversation progresses.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"character": map[string]any{
							"type":        "string",
							"description": "Persona to adopt, e.g. Mom, Boss, Landlord.",
						},
						"scenario_emotions": map[string]any{
							"type":        "array",
							"description": "Ordered emotional arc for the scenario, e.g. [\"angry\", \"defensive\", \"receptive\"].",
							"items":       map[string]any{"type": "string"},
						},
					},
					"required": []string{"character", "scenario_emotions"},
				},
			},
			Handler: startHandler(session),
		},
		{
			Definition: mcp.ToolDefinition{
				Name:        "set_roleplay_emotion",
				Description: "Override the character's current emotional posture. Use \"neutral\" to step out of character for a debrief without ending the scenario.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"emotion": map[string]any{
							"type":        "string",
							"description": "Emotional posture to jump to, e.g. angry, receptive, neutral.",
						},
					},
					"required": []string{"emotion"},
				},
			},
			Handler: setEmotionHandler(session),
		},
		{
			Definition: mcp.ToolDefinition{
				Name:        "end_roleplay",
				Description: "End the roleplay scenario and return the voice to its normal persona.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
			Handler: endHandler(session),
		},
	}
}
