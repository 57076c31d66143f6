package ai

import "testing"

func TestParseBatch(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want []string
	}{
		{
			name: "numbered",
			text: "1. First summary.\n2. Second summary.\n3. Third summary.",
			n:    3,
			want: []string{"First summary.", "Second summary.", "Third summary."},
		},
		{
			name: "numbered out of order with gap",
			text: "3) Third.\n1) First.",
			n:    3,
			want: []string{"First.", Unavailable, "Third."},
		},
		{
			name: "multi-line entries",
			text: "1. Rates held steady.\nSo what: mortgages stay expensive.\n\n2. A storm hit the coast.\nSo what: expect delays.",
			n:    2,
			want: []string{"Rates held steady. So what: mortgages stay expensive.", "A storm hit the coast. So what: expect delays."},
		},
		{
			name: "bold and bulleted numbers",
			text: "- **1.** Alpha.\n• **2.** Beta.",
			n:    2,
			want: []string{"Alpha.", "Beta."},
		},
		{
			name: "article prefix",
			text: "Article 1: Alpha.\nArticle 2: Beta.",
			n:    2,
			want: []string{"Alpha.", "Beta."},
		},
		{
			name: "bullets without numbers",
			text: "• Alpha.\n- Beta.",
			n:    2,
			want: []string{"Alpha.", "Beta."},
		},
		{
			name: "paragraphs without numbers",
			text: "Alpha line one.\nAlpha line two.\n\nBeta.",
			n:    2,
			want: []string{"Alpha line one. Alpha line two.", "Beta."},
		},
		{
			name: "preamble before bullets",
			text: "Here are the summaries:\n\n- Alpha.\n- Beta.",
			n:    2,
			want: []string{"Alpha.", "Beta."},
		},
		{
			name: "preamble before paragraphs",
			text: "Summaries:\n\nAlpha one.\nAlpha two.\n\nBeta.",
			n:    2,
			want: []string{"Alpha one. Alpha two.", "Beta."},
		},
		{
			name: "too few lines are padded",
			text: "Only one.",
			n:    3,
			want: []string{"Only one.", Unavailable, Unavailable},
		},
		{
			name: "extra lines are dropped",
			text: "A.\nB.\nC.",
			n:    2,
			want: []string{"A.", "B."},
		},
		{
			name: "decimal is not a number marker",
			text: "1. Growth hit\n3.5% in the quarter.",
			n:    3,
			want: []string{"Growth hit 3.5% in the quarter.", Unavailable, Unavailable},
		},
		{
			name: "empty response",
			text: "",
			n:    2,
			want: []string{Unavailable, Unavailable},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseBatch(tt.text, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d summaries, want %d: %q", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("summary %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
