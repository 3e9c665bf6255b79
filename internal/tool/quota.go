package tool

import "strings"

// quotaPatterns are matched case-insensitively against a failed backend's
// combined output and error text. A match classifies the failure as a
// quota, rate-limit, or authentication problem, which fails over to the
// next backend instead of stopping the pool.
var quotaPatterns = []string{
	"quota",
	"limit",
	"rate limit",
	"insufficient",
	"credits",
	"401",
	"403",
	"429",
	"api key",
	"authentication",
}

// isQuotaError reports whether a failed invocation's output or error text
// matches any quota pattern.
func isQuotaError(output, errText string) bool {
	haystack := strings.ToLower(output + "\n" + errText)
	for _, p := range quotaPatterns {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}
