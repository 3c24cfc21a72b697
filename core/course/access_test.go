package course

import "testing"

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		in   AccessInput
		want Access
	}{
		{
			name: "admins see everything",
			in:   AccessInput{IsAdmin: true, ModuleSlug: "shell", IsPaid: true},
			want: AccessGranted,
		},
		{
			name: "github is the open entry point",
			in:   AccessInput{ModuleSlug: "github"},
			want: AccessGranted,
		},
		{
			name: "beta tester without a passing github score",
			in:   AccessInput{IsBeta: true, ModuleSlug: "shell", IsPaid: true},
			want: AccessRequiresPrerequisite,
		},
		{
			name: "beta tester below the passing github score",
			in:   AccessInput{IsBeta: true, ModuleSlug: "shell", IsPaid: true, BestScores: map[string]int{"github": 59}},
			want: AccessRequiresPrerequisite,
		},
		{
			name: "beta tester unlocks shell by passing the github test",
			in:   AccessInput{IsBeta: true, ModuleSlug: "shell", IsPaid: true, BestScores: map[string]int{"github": 60}},
			want: AccessGranted,
		},
		{
			name: "beta access bypasses payment for shell only",
			in:   AccessInput{IsBeta: true, ModuleSlug: "docker", IsPaid: true, BestScores: map[string]int{"github": 100}},
			want: AccessRequiresPayment,
		},
		{
			name: "paid module without paid access",
			in:   AccessInput{ModuleSlug: "shell", IsPaid: true},
			want: AccessRequiresPayment,
		},
		{
			name: "paid access with an unmet prerequisite",
			in: AccessInput{
				HasPaidAccess: true, ModuleSlug: "shell", IsPaid: true,
				PrereqSlug: "github", PrereqMinScore: 60, BestScores: map[string]int{"github": 40},
			},
			want: AccessRequiresPrerequisite,
		},
		{
			name: "paid access with the prerequisite met",
			in: AccessInput{
				HasPaidAccess: true, ModuleSlug: "shell", IsPaid: true,
				PrereqSlug: "github", PrereqMinScore: 60, BestScores: map[string]int{"github": 60},
			},
			want: AccessGranted,
		},
		{
			name: "paid access without a prerequisite",
			in:   AccessInput{HasPaidAccess: true, ModuleSlug: "docker", IsPaid: true},
			want: AccessGranted,
		},
		{
			name: "free module without a prerequisite",
			in:   AccessInput{ModuleSlug: "intro"},
			want: AccessGranted,
		},
		{
			name: "free module with an unmet prerequisite",
			in:   AccessInput{ModuleSlug: "intro", PrereqSlug: "github", PrereqMinScore: 60},
			want: AccessLocked,
		},
		{
			name: "free module with the prerequisite met",
			in:   AccessInput{ModuleSlug: "intro", PrereqSlug: "github", PrereqMinScore: 60, BestScores: map[string]int{"github": 75}},
			want: AccessGranted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.in); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
