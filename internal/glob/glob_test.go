package glob

import "testing"

func match(t *testing.T, pattern, s string) bool {
	t.Helper()
	c, err := Compile(pattern)
	if err != nil {
		t.Fatalf("Compile(%q): %v", pattern, err)
	}
	dfa := c.NewRunner()
	state := dfa.Start()
	for i := 0; i < len(s); i++ {
		state = dfa.Step(state, s[i])
		if state < 0 {
			return false
		}
	}
	return dfa.Accept(state)
}

func TestLiteral(t *testing.T) {
	if !match(t, "hello", "hello") {
		t.Fatal("expected literal match")
	}
	if match(t, "hello", "hellox") {
		t.Fatal("expected literal mismatch on extra suffix")
	}
}

func TestStar(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"user:*", "user:1", true},
		{"user:*", "user:", true},
		{"user:*", "user", false},
		{"*", "", true},
		{"*", "anything", true},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "abc", true},
		{"a*b*c", "ac", false},
	}
	for _, c := range cases {
		if got := match(t, c.pattern, c.s); got != c.want {
			t.Errorf("match(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}

func TestQuestionMark(t *testing.T) {
	if !match(t, "h?llo", "hello") {
		t.Fatal("expected ? to match single char")
	}
	if match(t, "h?llo", "hllo") {
		t.Fatal("? must match exactly one char")
	}
}

func TestCharClass(t *testing.T) {
	if !match(t, "[abc]", "b") {
		t.Fatal("expected class match")
	}
	if match(t, "[abc]", "d") {
		t.Fatal("expected class mismatch")
	}
	if !match(t, "[^abc]", "d") {
		t.Fatal("expected negated class match")
	}
	if match(t, "[^abc]", "a") {
		t.Fatal("expected negated class mismatch")
	}
	if !match(t, "[a-z]", "m") {
		t.Fatal("expected range match")
	}
	if match(t, "[a-z]", "M") {
		t.Fatal("expected range mismatch on uppercase")
	}
}

func TestEscape(t *testing.T) {
	if !match(t, `\*`, "*") {
		t.Fatal("expected escaped literal star to match literal star")
	}
	if match(t, `\*`, "x") {
		t.Fatal("escaped star must not behave as wildcard")
	}
}

func TestTrailingBackslashError(t *testing.T) {
	if _, err := Compile(`abc\`); err == nil {
		t.Fatal("expected error for trailing backslash")
	}
}

func TestUnterminatedClassError(t *testing.T) {
	if _, err := Compile("[abc"); err == nil {
		t.Fatal("expected error for unterminated class")
	}
}
