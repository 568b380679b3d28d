package domain

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Letra Ã", "letra-a"},
		{"Letra A", "letra-a"},
		{"Ação e Emoção", "acao-e-emocao"},
		{"LETRA  Ç", "letra-c"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalAnswerLetterQuestion(t *testing.T) {
	q := Question{Word: "A", Options: []string{"/letra-a/a.png", "/letra-b/b.png"}}
	if got := q.CanonicalAnswer("Letra Ã"); got != "/letra-a/a.png" {
		t.Fatalf("canonical answer = %q, want /letra-a/a.png", got)
	}
}

func TestCanonicalAnswerImageQuestion(t *testing.T) {
	q := Question{Word: "Casa", Image: "/casa/casa.png", Options: []string{"Casa", "Bola"}}
	if got := q.CanonicalAnswer("Qualquer Título"); got != "Casa" {
		t.Fatalf("canonical answer = %q, want the word itself", got)
	}
}

func TestChallengeUnlocked(t *testing.T) {
	c := Challenge{RequiredScore: 100}
	if c.Unlocked(Profile{TotalScore: 99}) {
		t.Fatal("99 points must not unlock a 100-point challenge")
	}
	if !c.Unlocked(Profile{TotalScore: 100}) {
		t.Fatal("100 points must unlock a 100-point challenge")
	}
}
