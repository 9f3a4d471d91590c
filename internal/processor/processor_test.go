package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcess(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain":       {in: "hello", want: "bhola hello"},
		"empty":       {in: "", want: "bhola "},
		"spaces kept": {in: "  hi ", want: "bhola   hi "},
		"unicode":     {in: "привет", want: "bhola привет"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Process(tc.in))
		})
	}
}
