/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package config

import "sort"

const DefaultVendor = "openai"

type VendorInfo struct {
	Name            string
	FullName        string
	ApiKeyUrl       string
	ApiKeyEnv       string
	SupportedModels []string
	DefaultModel    string
}

var vendorInfos = map[string]VendorInfo{
	"google": {
		Name:            "google",
		FullName:        "Google",
		ApiKeyUrl:       "https://aistudio.google.com/app/api-keys",
		ApiKeyEnv:       "GOOGLE_API_KEY",
		SupportedModels: []string{"gemini-3-pro-preview", "gemini-3-flash-preview"},
		DefaultModel:    "gemini-3-pro-preview",
	},
	"anthropic": {
		Name:      "anthropic",
		FullName:  "Anthropic",
		ApiKeyUrl: "https://platform.claude.com/settings/keys",
		ApiKeyEnv: "ANTHROPIC_API_KEY",
		SupportedModels: []string{"claude-sonnet-4-5-20250929",
			"claude-opus-4-5-20251101", "claude-haiku-4-5-20251001"},
		DefaultModel: "claude-sonnet-4-5-20250929",
	},
	"openai": {
		Name:            "openai",
		FullName:        "OpenAI",
		ApiKeyUrl:       "https://platform.openai.com/api-keys",
		ApiKeyEnv:       "OPENAI_API_KEY",
		SupportedModels: []string{"gpt-5.2", "gpt-5-mini", "gpt-5.2-pro"},
		DefaultModel:    "gpt-5.2",
	},
}

// GetVendors returns the supported vendor names in sorted order.
func GetVendors() []string {
	ret := make([]string, 0, len(vendorInfos))
	for k := range vendorInfos {
		ret = append(ret, k)
	}
	sort.Strings(ret)

	return ret
}

func GetVendorInfo(name string) (VendorInfo, bool) {
	v, ok := vendorInfos[name]
	return v, ok
}
