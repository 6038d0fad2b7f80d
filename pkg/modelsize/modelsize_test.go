package modelsize

import "testing"

func TestClassifyScenarioS3(t *testing.T) {
	cases := []struct {
		model string
		want  Class
	}{
		{"llama3.1:8b", Small},
		{"qwen3-coder:30b", Medium},
		{"llama3.1:70b", Large},
		{"model:8B", Small},
		{"gpt-4", Unknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.model, DefaultThresholds); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.model, got, tc.want)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	th := Thresholds{Small: 8, Medium: 32}
	cases := []struct {
		k    int
		want Class
	}{
		{8, Small},
		{9, Medium},
		{32, Medium},
		{33, Large},
	}
	for _, tc := range cases {
		model := "m:" + itoa(tc.k) + "b"
		if got := Classify(model, th); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", model, got, tc.want)
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestDefaultTierCap(t *testing.T) {
	cases := []struct {
		c    Class
		want int
	}{
		{Small, 1},
		{Medium, 2},
		{Large, 3},
		{Unknown, 1},
	}
	for _, tc := range cases {
		if got := tc.c.DefaultTierCap(); got != tc.want {
			t.Errorf("%s.DefaultTierCap() = %d, want %d", tc.c, got, tc.want)
		}
	}
}
