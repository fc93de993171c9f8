package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Jardim Paulístano", want: "jardim paulistano"},
		{in: "  Rua   São João,  45 ", want: "rua sao joao, 45"},
		{in: "CONSOLAÇÃO", want: "consolacao"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}
