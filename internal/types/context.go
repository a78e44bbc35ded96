/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package types

// AgentContext selects the backend one agent runs on.
type AgentContext struct {
	LlmVendor          string
	LlmModel           string
	LlmApiKey          string
	LlmReasoningEffort string
}
