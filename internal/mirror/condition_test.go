package mirror

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title string
		want  Condition
	}{
		{"Home · nelsonjchen/github-wiki-test Wiki · GitHub", ConditionNormal},
		{"", ConditionNormal},
		{"Page not found · GitHub", ConditionNotFound},
		{"Page not found · GitHub · GitHub", ConditionNotFound},
		{"page not found · GitHub", ConditionNormal},
		{"Rate limit · GitHub", ConditionRateLimited},
		{"Rate limit · GitHub ", ConditionNormal},
		{"Rate limit", ConditionNormal},
	}

	for _, tc := range cases {
		if got := Classify(tc.title); got != tc.want {
			t.Errorf("Classify(%q): expected %s, got %s", tc.title, tc.want, got)
		}
	}
}

func TestConditionString(t *testing.T) {
	t.Parallel()

	if ConditionNormal.String() != "normal" {
		t.Errorf("unexpected normal label %q", ConditionNormal.String())
	}
	if ConditionNotFound.String() != "not_found" {
		t.Errorf("unexpected not found label %q", ConditionNotFound.String())
	}
	if ConditionRateLimited.String() != "rate_limited" {
		t.Errorf("unexpected rate limited label %q", ConditionRateLimited.String())
	}
}
