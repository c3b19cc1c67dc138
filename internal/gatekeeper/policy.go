package gatekeeper

// CombineAll is the rule-combination policy: every configured, active check
// must pass (AND). The first failing result wins so the caller sees the most
// actionable reason. Product may later decide platform rules are mutually
// exclusive; that change belongs here, not in the evaluator control flow.
func CombineAll(results ...Result) Result {
	for _, result := range results {
		if !result.Allowed {
			return result
		}
	}
	return allow()
}
