/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptsWellFormed(t *testing.T) {
	assert.NotContains(t, DispatcherMsg, "(EXTRA")
	assert.NotContains(t, DispatcherMsg, "%!")
	assert.Contains(t, DispatcherMsg, "deep_reasoning")
	assert.NotEmpty(t, ReasonerMsg)
	assert.NotEmpty(t, ExecutorMsg)
}
