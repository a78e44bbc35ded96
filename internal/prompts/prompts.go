/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package prompts

import (
	_ "embed"
	"fmt"

	"github.com/mikeb26/chorus/internal/types"
)

//go:embed dispatcher_msg.txt
var DispatcherMsgFmt string
var DispatcherMsg = fmt.Sprintf(DispatcherMsgFmt, types.WebSearch,
	types.WebFetch, types.EmitBlock, types.DeepReasoning,
	types.PreciseExecution)

//go:embed reasoner_msg.txt
var ReasonerMsg string

//go:embed executor_msg.txt
var ExecutorMsg string
