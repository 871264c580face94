package checker

import "github.com/use-agent/linkguard/models"

// ShouldCapture decides whether a checked link gets a screenshot under
// the given policy. Pure predicate; the capture itself is performed by
// the page driver and artifact store.
func ShouldCapture(policy models.ScreenshotPolicy, passed bool) bool {
	switch policy {
	case models.ScreenshotAll:
		return true
	case models.ScreenshotFailing:
		return !passed
	default:
		return false
	}
}
