package scoring

// BehavioralTags is the controlled vocabulary an analysis may use, in the
// order it is presented to the engine.
var BehavioralTags = []string{
	"future_focused",
	"past_reflecting",
	"present_anchored",
	"socially_engaged",
	"internally_focused",
	"action_oriented",
	"contemplative",
	"emotionally_processing",
	"problem_solving",
	"gratitude_expressing",
	"identity_exploring",
	"relationship_focused",
	"achievement_oriented",
	"rest_seeking",
	"growth_mindset",
	"fixed_perspective",
	"optimistic_leaning",
	"pessimistic_leaning",
	"self_compassionate",
	"self_critical",
}

var allowedTags = func() map[string]struct{} {
	m := make(map[string]struct{}, len(BehavioralTags))
	for _, tag := range BehavioralTags {
		m[tag] = struct{}{}
	}
	return m
}()

// IsBehavioralTag reports whether tag belongs to the taxonomy.
func IsBehavioralTag(tag string) bool {
	_, ok := allowedTags[tag]
	return ok
}
