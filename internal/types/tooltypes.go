/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package types

type ToolCallOp string

const (
	WebSearch        ToolCallOp = "web_search"
	WebFetch         ToolCallOp = "web_fetch"
	EmitBlock        ToolCallOp = "emit_block"
	DeepReasoning    ToolCallOp = "deep_reasoning"
	PreciseExecution ToolCallOp = "precise_execution"
)

type Tool interface {
	GetOp() ToolCallOp
	Define() LlmTool
}
