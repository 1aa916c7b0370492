package analysis

// TagRule attaches Tag to a summary when Match reports true
type TagRule struct {
	Tag   string
	Match func(Summary) bool
}

// TagRules are the default tag rules, applied in order. The tempo rules are
// mutually exclusive; a tempo within [80, 120] BPM gets neither.
var TagRules = []TagRule{
	{Tag: "fast-tempo", Match: func(s Summary) bool { return s.TempoBPM > 120 }},
	{Tag: "slow-tempo", Match: func(s Summary) bool { return s.TempoBPM < 80 }},
	{Tag: "noisy", Match: func(s Summary) bool { return s.ZeroCrossingRateMean > 0.1 }},
	{Tag: "bright", Match: func(s Summary) bool { return s.SpectralCentroidMean > 3000 }},
}

// DeriveTags evaluates rules against s and returns the matching tags in rule order
func DeriveTags(s Summary, rules []TagRule) []string {
	tags := []string{}
	for _, rule := range rules {
		if rule.Match != nil && rule.Match(s) {
			tags = append(tags, rule.Tag)
		}
	}
	return tags
}
