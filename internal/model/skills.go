package model

// SkillExpr is a job's skill requirement against a vehicle's skill set.
// allOf: subset; oneOf: non-empty intersection; noneOf: empty intersection.
type SkillExpr struct {
	AllOf  []string
	OneOf  []string
	NoneOf []string
}

// Matches evaluates the expression against a vehicle skill set.
func (e *SkillExpr) Matches(skills map[string]struct{}) bool {
	if e == nil {
		return true
	}
	for _, s := range e.AllOf {
		if _, ok := skills[s]; !ok {
			return false
		}
	}
	if len(e.OneOf) > 0 {
		found := false
		for _, s := range e.OneOf {
			if _, ok := skills[s]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, s := range e.NoneOf {
		if _, ok := skills[s]; ok {
			return false
		}
	}
	return true
}

// SkillSet builds a lookup set from a list of vehicle skills.
func SkillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		set[s] = struct{}{}
	}
	return set
}
