package model

import "testing"

func TestSkillExprMatches(t *testing.T) {
	vehicle := SkillSet([]string{"crane", "fridge", "adr"})
	cases := []struct {
		name string
		expr *SkillExpr
		want bool
	}{
		{"nil expression", nil, true},
		{"allOf subset", &SkillExpr{AllOf: []string{"crane", "adr"}}, true},
		{"allOf missing", &SkillExpr{AllOf: []string{"crane", "tailgate"}}, false},
		{"oneOf hit", &SkillExpr{OneOf: []string{"tailgate", "fridge"}}, true},
		{"oneOf miss", &SkillExpr{OneOf: []string{"tailgate"}}, false},
		{"noneOf clear", &SkillExpr{NoneOf: []string{"tailgate"}}, true},
		{"noneOf violated", &SkillExpr{NoneOf: []string{"adr"}}, false},
		{"combined", &SkillExpr{AllOf: []string{"crane"}, OneOf: []string{"fridge"}, NoneOf: []string{"tailgate"}}, true},
	}
	for _, c := range cases {
		if got := c.expr.Matches(vehicle); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}
