package scoring

import "testing"

func TestIndustryMatch(t *testing.T) {
	tests := []struct {
		name     string
		industry string
		icps     []string
		expected int
	}{
		{"empty industry", "", []string{"SaaS"}, 0},
		{"no icps", "SaaS", nil, 0},
		{"exact case insensitive", "saas", []string{"SaaS"}, 20},
		{"exact with whitespace", "  SaaS ", []string{" saas"}, 20},
		{"icp contains industry", "fintech", []string{"B2B Fintech"}, 10},
		{"industry contains icp", "Enterprise SaaS", []string{"saas"}, 10},
		{"exact wins over earlier substring", "saas", []string{"B2B SaaS", "SaaS"}, 20},
		{"blank icp ignored", "retail", []string{"", "  "}, 0},
		{"no match", "Healthcare", []string{"SaaS", "Fintech"}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IndustryMatch(tc.industry, tc.icps); got != tc.expected {
				t.Fatalf("expected %d got %d", tc.expected, got)
			}
		})
	}
}
